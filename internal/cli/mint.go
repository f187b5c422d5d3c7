package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fellas-token/backend/internal/eth"
	"github.com/fellas-token/backend/internal/models"
	"github.com/fellas-token/backend/internal/services"
)

var (
	mintMode  string
	mintOffer string
	mintTo    string

	multiFrom     uint64
	multiQuantity int
)

var mintCmd = &cobra.Command{
	Use:   "mint <token-id>",
	Short: "Mint one slot from the signer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil || id == 0 {
			return fmt.Errorf("invalid token id %q", args[0])
		}

		return withSession(cmd, func(ctx context.Context, s *session) error {
			res, err := s.mint.Mint(ctx, services.MintRequest{
				TokenID: id,
				Mode:    mintMode,
				Offer:   mintOffer,
				To:      mintTo,
				Actor:   "cli",
			})
			if err != nil {
				return err
			}
			printTx(cmd.OutOrStdout(), res.TxResult)
			if res.OK {
				fmt.Fprintf(cmd.OutOrStdout(), "Minted #%d → %s\n", id, s.resolver.MetadataURI(id))
			}
			return res.Err()
		})
	},
}

var mintMultiCmd = &cobra.Command{
	Use:   "mint-multi",
	Short: "Mint a contiguous run of slots in one transaction",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			res, err := s.mint.MintMulti(ctx, services.MintMultiRequest{
				From:     multiFrom,
				Quantity: multiQuantity,
				Offer:    mintOffer,
				To:       mintTo,
				Actor:    "cli",
			})
			if err != nil {
				return err
			}
			printTx(cmd.OutOrStdout(), res.TxResult)
			if res.OK {
				fmt.Fprintf(cmd.OutOrStdout(), "Minted #%d..#%d, collection now at %d\n",
					multiFrom, multiFrom+uint64(multiQuantity)-1, res.Count)
			}
			return res.Err()
		})
	},
}

func init() {
	mintCmd.Flags().StringVar(&mintMode, "mode", models.MintModeSingle, "mint, whitelist or free")
	mintCmd.Flags().StringVar(&mintOffer, "offer", "", "ether to send (default $DEFAULT_OFFER_ETH)")
	mintCmd.Flags().StringVar(&mintTo, "to", "", "recipient (default the signer)")

	mintMultiCmd.Flags().Uint64Var(&multiFrom, "from", 0, "first token id")
	mintMultiCmd.Flags().IntVar(&multiQuantity, "quantity", 1, "number of tokens")
	mintMultiCmd.Flags().StringVar(&mintOffer, "offer", "", "total ether to send (default offer x quantity)")
	mintMultiCmd.Flags().StringVar(&mintTo, "to", "", "recipient (default the signer)")
	_ = mintMultiCmd.MarkFlagRequired("from")
}

func printTx(w io.Writer, res eth.TxResult) {
	if res.TxHash != "" {
		fmt.Fprintf(w, "Tx:    %s\n", res.TxHash)
	}
	if res.OK {
		fmt.Fprintf(w, "Block: %d (gas %d)\n", res.Block, res.GasUsed)
		return
	}
	if res.Code == eth.CodeTimeout && res.TxHash != "" {
		fmt.Fprintln(w, "Still pending; check again later.")
	}
}
