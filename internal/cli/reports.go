package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/desims/tokobangunansaya/internal/db"
	"github.com/desims/tokobangunansaya/internal/pos"
	"github.com/desims/tokobangunansaya/internal/receipt"
	"github.com/desims/tokobangunansaya/internal/report"
	"github.com/spf13/cobra"
)

// NewSalesCommand lists every sale, newest first
func NewSalesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sales",
		Short: "List sales, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(ctx context.Context, s *Session, out *OutputFormatter) error {
				res, err := dispatch(ctx, s, pos.OpListSales, nil)
				if err != nil {
					return err
				}
				list := res.Data.([]db.Sale)
				return out.Success(res.Message, list, func(w io.Writer) {
					fmt.Fprintln(w, "ID\tTIME\tCODE\tNAME\tQTY\tPRICE\tTOTAL")
					for _, sale := range list {
						fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\tRp %s\tRp %s\n",
							sale.ID,
							sale.SoldAt.In(s.Location).Format(receipt.TimestampLayout),
							sale.ItemCode,
							sale.ItemName(),
							sale.Quantity,
							receipt.FormatAmount(sale.UnitPrice),
							receipt.FormatAmount(sale.Total),
						)
					}
				})
			})
		},
	}
}

// NewDailyCommand shows revenue per calendar date
func NewDailyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "daily",
		Short: "Show revenue per day, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(ctx context.Context, s *Session, out *OutputFormatter) error {
				res, err := dispatch(ctx, s, pos.OpDailyRevenue, nil)
				if err != nil {
					return err
				}
				days := res.Data.([]report.DailyRevenue)
				return out.Success(res.Message, days, func(w io.Writer) {
					fmt.Fprintln(w, "DATE\tSALES\tREVENUE")
					for _, d := range days {
						fmt.Fprintf(w, "%s\t%d\tRp %s\n", d.Date, d.Sales, receipt.FormatAmount(d.Total))
					}
				})
			})
		},
	}
}

// ReceiptOptions holds flags for the receipt command
type ReceiptOptions struct {
	*RootOptions
	Dir string
}

// NewReceiptCommand renders the PDF receipt of a past sale
func NewReceiptCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReceiptOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "receipt <sale-id>",
		Short: "Save the PDF receipt of a sale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, s *Session, out *OutputFormatter) error {
				id, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("%w: sale id must be a positive number, got %q", pos.ErrInvalidArgument, args[0])
				}
				path, err := saveReceipt(ctx, s, uint(id), opts.Dir)
				if err != nil {
					return err
				}
				return out.Success("Receipt saved to "+path, map[string]string{"path": path}, nil)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Dir, "out", "o", "", "output directory (default RECEIPT_DIR)")
	return cmd
}
