package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/desims/tokobangunansaya/internal/db"
	"github.com/desims/tokobangunansaya/internal/pos"
	"github.com/desims/tokobangunansaya/internal/receipt"
	"github.com/spf13/cobra"
)

// NewItemCommand groups the catalog commands
func NewItemCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage the item catalog",
	}
	cmd.AddCommand(newItemAddCommand(rootOpts))
	cmd.AddCommand(newItemListCommand(rootOpts))
	cmd.AddCommand(newItemImportCommand(rootOpts))
	return cmd
}

func newItemAddCommand(rootOpts *RootOptions) *cobra.Command {
	fields := map[string]*string{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new item to the catalog",
		Example: `  pos item add --code CEM01 --name "Cement 40kg" --unit sak \
    --cost-price 50000 --sale-price 65000 --quantity 100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			form := map[string]string{}
			for name, value := range fields {
				form[name] = *value
			}
			return rootOpts.run(cmd, func(ctx context.Context, s *Session, out *OutputFormatter) error {
				res, err := dispatch(ctx, s, pos.OpAddItem, form)
				if err != nil {
					return err
				}
				return out.Success(res.Message, res.Data, nil)
			})
		},
	}

	for _, f := range []struct{ field, flag, usage string }{
		{"code", "code", "item code, unique"},
		{"name", "name", "item name"},
		{"unit", "unit", "unit of sale (sak, kg, batang)"},
		{"cost_price", "cost-price", "purchase price"},
		{"sale_price", "sale-price", "selling price"},
		{"quantity", "quantity", "initial stock"},
	} {
		fields[f.field] = cmd.Flags().String(f.flag, "", f.usage)
	}
	for _, required := range []string{"code", "name", "cost-price", "sale-price", "quantity"} {
		_ = cmd.MarkFlagRequired(required)
	}
	return cmd
}

func newItemListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show stock on hand",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(ctx context.Context, s *Session, out *OutputFormatter) error {
				res, err := dispatch(ctx, s, pos.OpListItems, nil)
				if err != nil {
					return err
				}
				items := res.Data.([]db.ItemSummary)
				return out.Success(res.Message, items, func(w io.Writer) {
					fmt.Fprintln(w, "CODE\tNAME\tSTOCK\tUNIT\tPRICE")
					for _, it := range items {
						fmt.Fprintf(w, "%s\t%s\t%d\t%s\tRp %s\n", it.Code, it.Name, it.Quantity, it.Unit, receipt.FormatAmount(it.SalePrice))
					}
				})
			})
		},
	}
}

func newItemImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <catalog.yaml>",
		Short: "Add every item of a YAML catalog, skipping codes already present",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.run(cmd, func(ctx context.Context, s *Session, out *OutputFormatter) error {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("%w: %v", pos.ErrInvalidArgument, err)
				}
				defer f.Close()

				items, err := pos.LoadCatalog(f)
				if err != nil {
					return err
				}

				result := pos.Import(ctx, s.Backend, items)
				message := fmt.Sprintf("%d added, %d skipped, %d failed", len(result.Added), len(result.Skipped), len(result.Failed))
				return out.Success(message, result, func(w io.Writer) {
					for _, code := range result.Added {
						fmt.Fprintf(w, "%s\tadded\n", code)
					}
					for _, code := range result.Skipped {
						fmt.Fprintf(w, "%s\tskipped\talready in catalog\n", code)
					}
					for code, reason := range result.Failed {
						fmt.Fprintf(w, "%s\tfailed\t%s\n", code, reason)
					}
				})
			})
		},
	}
}
