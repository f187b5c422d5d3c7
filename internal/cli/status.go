package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the signer, the contract balance and every visible slot",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			w := cmd.OutOrStdout()

			state, err := s.wallet.Refresh(ctx)
			if err != nil {
				return err
			}
			snap, err := s.collection.Snapshot(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(w, "Signer:   %s (%s ETH)\n", state.Address, state.BalanceETH)
			if state.ChainID != "" {
				fmt.Fprintf(w, "Chain:    %s\n", state.ChainID)
			}
			fmt.Fprintf(w, "Minted:   %d\n", snap.Count)
			fmt.Fprintf(w, "Contract: %s ETH\n", snap.BalanceETH)
			fmt.Fprintln(w)
			for _, slot := range snap.Slots {
				mark := "○"
				if slot.Minted {
					mark = "✓"
				}
				fmt.Fprintf(w, "  %s #%d %s %s\n", mark, slot.TokenID, slot.State, slot.DisplayURI)
			}
			if snap.Failed > 0 {
				fmt.Fprintf(w, "\nWARNING: %d slot(s) could not be checked.\n", snap.Failed)
			}
			return nil
		})
	},
}
