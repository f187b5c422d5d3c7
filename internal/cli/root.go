package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fellas-token/backend/internal/config"
)

var (
	cfg     *config.Config
	log     *zap.Logger
	version = "dev"

	rpcURL   string
	contract string
	timeout  time.Duration
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "fellas",
	Short: "Operate the FellasToken collection",
	Long: `fellas deploys the FellasToken contract and drives it from the
configured signer: mint slots, inspect the collection, withdraw proceeds.

Settings come from the environment (.env is read if present); flags win.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		cfg = config.Load()
		if rpcURL != "" {
			cfg.RPCURL = rpcURL
		}
		if contract != "" {
			cfg.ContractAddress = contract
		}

		var err error
		log, err = newLogger(verbose)
		if err != nil {
			return fmt.Errorf("failed to init logger: %w", err)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "fellas %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rpcURL, "rpc", "", "JSON-RPC endpoint (default $RPC_URL)")
	rootCmd.PersistentFlags().StringVar(&contract, "contract", "", "FellasToken address (default $CONTRACT_ADDRESS)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "give up waiting for a transaction after this long")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")

	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(mintCmd)
	rootCmd.AddCommand(mintMultiCmd)
	rootCmd.AddCommand(withdrawCmd)
	rootCmd.AddCommand(uriCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zcfg.Build()
}

func SetVersion(v string) {
	version = v
}

func Execute() error {
	return rootCmd.Execute()
}

func Root() *cobra.Command {
	return rootCmd
}
