package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gosimple/slug"
	"github.com/spf13/cobra"

	"github.com/syssam/dbscope/aggregate"
	"github.com/syssam/dbscope/config"
)

// NewTypesCommand creates the types command.
func NewTypesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the object types and the data sources serving them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			a, err := loadApp(rootOpts, cmd.ErrOrStderr(), nil)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, a.Close()) }()
			out := cmd.OutOrStdout()
			for _, typ := range a.registry.Types() {
				fmt.Fprintf(out, "%s\t%s\n", typ, strings.Join(a.registry.Sources(typ), ","))
			}
			for _, c := range a.generators.Commands() {
				fmt.Fprintf(out, "/%s\t%s\n", c.Name, c.Description)
			}
			return nil
		},
	}
}

// NewReadCommand creates the read command.
func NewReadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "read <locator>",
		Short: "Print the resources addressed by a locator as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := loadApp(rootOpts, cmd.ErrOrStderr(), nil)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, a.Close()) }()
			rs, err := a.pipeline.Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rs)
		},
	}
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "generate <locator>",
		Short: "Render the resources addressed by a locator",
		Long: `Render the resources addressed by a locator with the generator named by
its suffix, for example "table/public.users/drop". Without a suffix the
create generator is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := loadApp(rootOpts, cmd.ErrOrStderr(), nil)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, a.Close()) }()
			rs, err := a.pipeline.Render(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range rs {
				fmt.Fprintf(out, "-- %s\n%s\n", r.Key(), strings.TrimRight(r.Payload(), "\n"))
			}
			return nil
		},
	}
}

// ExportOptions holds the flags of the export command.
type ExportOptions struct {
	Output string
	Format string
	Watch  bool
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{}
	cmd := &cobra.Command{
		Use:   "export <locator>",
		Short: "Bundle the rendered resources into an archive",
		Long: `Render the resources addressed by a locator and bundle every resource
carrying a file_name property into one archive entry.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, rootOpts, opts, args[0])
		},
	}
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default: slug of the locator)")
	cmd.Flags().StringVar(&opts.Format, "format", "zip", "archive format (zip|msgpack)")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "export again whenever the configuration changes")
	return cmd
}

func runExport(cmd *cobra.Command, rootOpts *RootOptions, opts *ExportOptions, raw string) error {
	agg, err := aggregate.ForFormat(opts.Format)
	if err != nil {
		return err
	}
	output := opts.Output
	if output == "" {
		output = exportName(raw, opts.Format)
	}
	a, err := loadApp(rootOpts, cmd.ErrOrStderr(), agg)
	if err != nil {
		return err
	}
	if err := errors.Join(export(cmd, a, raw, output), a.Close()); err != nil || !opts.Watch {
		return err
	}
	err = config.Watch(cmd.Context(), rootOpts.Config, func(cfg *config.Config, err error) {
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "dbscope: reload:", err)
			return
		}
		a, err := newApp(cfg, rootOpts, cmd.ErrOrStderr(), agg)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "dbscope: reload:", err)
			return
		}
		if err := errors.Join(export(cmd, a, raw, output), a.Close()); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "dbscope: export:", err)
		}
	}, config.WithLoadOptions(configOptions(rootOpts)...))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func export(cmd *cobra.Command, a *app, raw, output string) error {
	blob, err := a.pipeline.Export(cmd.Context(), raw)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, blob, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", output, len(blob))
	return nil
}

// exportName derives the archive file name from the locator.
func exportName(raw, format string) string {
	name := slug.Make(raw)
	if name == "" {
		name = "export"
	}
	return name + "." + strings.ToLower(format)
}
