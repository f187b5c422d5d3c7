package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var uriCmd = &cobra.Command{
	Use:   "uri <token-id>",
	Short: "Print the metadata URI stored for a minted token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil || id == 0 {
			return fmt.Errorf("invalid token id %q", args[0])
		}
		return withSession(cmd, func(ctx context.Context, s *session) error {
			uri, err := s.mint.TokenURI(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), uri)
			if gw := s.resolver.GatewayURL(uri); gw != uri {
				fmt.Fprintln(cmd.OutOrStdout(), gw)
			}
			return nil
		})
	},
}
