package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fellas-token/backend/internal/eth"
)

var artifactPath string

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy FellasToken from a compiled artifact",
	Long: `Deploy the contract from a Hardhat or Foundry artifact and print its
address. Put the address in CONTRACT_ADDRESS for the other commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := artifactPath
		if path == "" {
			path = cfg.ContractArtifact
		}
		art, err := eth.LoadArtifact(path)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		client, err := eth.Dial(ctx, cfg.RPCURL, log)
		if err != nil {
			return err
		}
		defer client.Close()

		wallet, err := newWallet(client, cfg, log)
		if err != nil {
			return err
		}
		if err := wallet.Connect(ctx); err != nil {
			return err
		}

		addr, tx, err := eth.Deploy(ctx, client, wallet, art)
		if tx != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Tx:    %s\n", tx.Hash().Hex())
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s deployed to: %s\n", art.ContractName, addr.Hex())
		return nil
	},
}

func init() {
	deployCmd.Flags().StringVar(&artifactPath, "artifact", "", "artifact JSON (default $CONTRACT_ARTIFACT)")
}
