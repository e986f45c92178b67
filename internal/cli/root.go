package cli

import (
	"context"
	"fmt"

	"github.com/desims/tokobangunansaya/internal/pos"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	EnvFile string
	Server  string

	open Opener
}

// ValidFormats defines the allowed output formats
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the pos command using the real configuration
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithOpener(OpenSession)
}

// NewRootCommandWithOpener creates the pos command with a custom backend opener
func NewRootCommandWithOpener(open Opener) *cobra.Command {
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "pos",
		Short: "Toko bangunan cashier",
		Long:  "Catalog, sales, daily revenue and receipts for a single building-materials store.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return WrapExitError(ExitCommandError, "invalid flags",
					fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "env file to load before the environment")
	cmd.PersistentFlags().StringVar(&opts.Server, "server", "", "server URL; talk to a running posd instead of the database")

	cmd.AddCommand(NewItemCommand(opts))
	cmd.AddCommand(NewSellCommand(opts))
	cmd.AddCommand(NewSalesCommand(opts))
	cmd.AddCommand(NewDailyCommand(opts))
	cmd.AddCommand(NewReceiptCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// run opens a session, calls fn and turns its error into formatted output
// and an exit code
func (o *RootOptions) run(cmd *cobra.Command, fn func(ctx context.Context, s *Session, out *OutputFormatter) error) error {
	out := o.formatter(cmd)

	session, err := o.open(o)
	if err != nil {
		_ = out.Error(pos.CodeInternal, "could not open the store", err.Error())
		return WrapExitError(ExitCommandError, "open store", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			out.VerboseLog("close: %v", cerr)
		}
	}()

	if err := fn(cmd.Context(), session, out); err != nil {
		code := pos.ErrorCode(err)
		_ = out.Error(code, pos.Describe(err), err.Error())

		exit := ExitFailure
		if code == pos.CodeInternal {
			exit = ExitCommandError
		}
		return WrapExitError(exit, pos.Describe(err), err)
	}
	return nil
}

// dispatch runs one operation through the dispatcher
func dispatch(ctx context.Context, s *Session, op pos.Operation, args map[string]string) (*pos.Result, error) {
	return pos.NewDispatcher(s.Backend, s.Log).Dispatch(ctx, op, args)
}
