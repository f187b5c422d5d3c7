package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Pay the contract balance out to its owner",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			res, err := s.collection.Withdraw(ctx, "cli")
			if err != nil {
				return err
			}
			printTx(cmd.OutOrStdout(), res.TxResult)
			fmt.Fprintf(cmd.OutOrStdout(), "Contract balance: %s ETH\n", res.BalanceETH)
			return res.Err()
		})
	},
}
