// Package cli implements crmctl, the operator command line of the CRM.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"immigration_crm_go/app"
	"io"

	"github.com/spf13/cobra"
)

// Opener builds the application for one command run. release is called when
// the command finishes.
type Opener func(ctx context.Context) (a *app.App, release func(), err error)

// RootOptions holds global flags for all commands
type RootOptions struct {
	Format string // "json" | "text"
	open   Opener
}

// ValidFormats defines the allowed output formats
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the crmctl root command
func NewRootCommand(open Opener) *cobra.Command {
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "crmctl",
		Short: "Operate the immigration CRM",
		Long:  "Administrative commands for the immigration law CRM: users, catalog, accounting, reminders and shop orders.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewCreateUserCommand(opts))
	cmd.AddCommand(NewSeedCatalogCommand(opts))
	cmd.AddCommand(NewSummaryCommand(opts))
	cmd.AddCommand(NewNotifyCommand(opts))
	cmd.AddCommand(NewSyncOrdersCommand(opts))

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

// withApp opens the application, runs fn and releases it
func (o *RootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, release, err := o.open(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx, a)
}

// print writes v as indented JSON, or calls text for the text format
func (o *RootOptions) print(w io.Writer, v interface{}, text func(io.Writer)) error {
	if o.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}
