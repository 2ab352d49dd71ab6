// Package cli implements the dbscope command line.
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Config   string
	LogLevel string
	Workers  int
	Queries  bool
	Verbose  bool
}

// NewRootCommand creates the root command of the dbscope CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "dbscope",
		Short: "Read and render database objects by locator",
		Long: `dbscope resolves resource locators such as "table/public.users" against
configured data sources and renders the matching objects as DDL, Go
structs, GraphQL types or custom templates.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "dbscope.yaml", "configuration file (yaml or toml)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override the configured log level")
	cmd.PersistentFlags().IntVar(&opts.Workers, "workers", 0, "override the configured render workers")
	cmd.PersistentFlags().BoolVar(&opts.Queries, "queries", false, "log every executed query")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log query statistics on exit")

	cmd.AddCommand(NewTypesCommand(opts))
	cmd.AddCommand(NewReadCommand(opts))
	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	return cmd
}
