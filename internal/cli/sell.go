package cli

import (
	"context"
	"strconv"

	"github.com/desims/tokobangunansaya/internal/db"
	"github.com/desims/tokobangunansaya/internal/pos"
	"github.com/desims/tokobangunansaya/internal/receipt"
	"github.com/spf13/cobra"
)

// SellOptions holds flags for the sell command
type SellOptions struct {
	*RootOptions
	Receipt    bool
	ReceiptDir string
}

// NewSellCommand creates the sell command
func NewSellCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SellOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sell <code> <quantity>",
		Short: "Sell units of an item and take them out of stock",
		Example: `  pos sell CEM01 10
  pos sell CEM01 2 --receipt`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, s *Session, out *OutputFormatter) error {
				res, err := dispatch(ctx, s, pos.OpSell, map[string]string{
					"code":     args[0],
					"quantity": args[1],
				})
				if err != nil {
					return err
				}

				if opts.Receipt {
					sale := res.Data.(*db.Sale)
					path, err := saveReceipt(ctx, s, sale.ID, opts.ReceiptDir)
					if err != nil {
						// the sale is committed; only the printout failed
						out.VerboseLog("receipt for sale %d: %v", sale.ID, err)
						res.Message += "\nReceipt could not be saved: " + pos.Describe(err)
					} else {
						res.Message += "\nReceipt saved to " + path
					}
				}
				return out.Success(res.Message, res.Data, nil)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Receipt, "receipt", false, "save the PDF receipt after the sale")
	cmd.Flags().StringVar(&opts.ReceiptDir, "receipt-dir", "", "receipt directory (default RECEIPT_DIR)")
	return cmd
}

func saveReceipt(ctx context.Context, s *Session, saleID uint, dir string) (string, error) {
	res, err := dispatch(ctx, s, pos.OpRenderReceipt, map[string]string{
		"sale_id": strconv.FormatUint(uint64(saleID), 10),
	})
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = s.ReceiptDir
	}
	return receipt.Save(dir, res.Data.(*receipt.Document))
}
