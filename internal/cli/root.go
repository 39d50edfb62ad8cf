package cli

import (
	"fmt"

	"github.com/duke-git/lancet/v2/slice"
	"github.com/spf13/cobra"

	"github.com/preceeder/go.db.sqlkit/dialect"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Config string
	Driver string
	Format string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the sqlkit CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sqlkit",
		Short: "sqlkit - SQL builder and placeholder toolkit",
		Long:  "Render SQL from YAML specs, inspect placeholder rewriting and run queries against a configured database.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slice.Contain(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if !slice.Contain(dialect.Names(), opts.Driver) {
				return fmt.Errorf("invalid driver %q: must be one of %v", opts.Driver, dialect.Names())
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "config file (default .sqlkit.yaml)")
	cmd.PersistentFlags().StringVarP(&opts.Driver, "driver", "d", "mysql", "sql dialect (mysql|postgres|sqlite3)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewRewriteCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))

	return cmd
}
