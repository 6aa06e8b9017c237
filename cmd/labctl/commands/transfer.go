package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/zatekoja/medlab/internal/app"
	"github.com/zatekoja/medlab/internal/domain/entities"
)

func newExportCommand(opts *rootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole store as an export file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withLab(cmd, func(ctx context.Context, lab *app.Lab) error {
				data, err := lab.Transfer.ExportFile(ctx)
				if err != nil {
					return err
				}
				if out == "" || out == "-" {
					_, err := cmd.OutOrStdout().Write(data)
					return err
				}
				if err := os.WriteFile(out, data, 0o600); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s to %s\n", humanize.Bytes(uint64(len(data))), out)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newImportCommand(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the store with an export file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			if args[0] == "-" && !yes {
				return fmt.Errorf("importing from stdin requires --yes")
			}

			return opts.withLab(cmd, func(ctx context.Context, lab *app.Lab) error {
				result, err := lab.Transfer.Import(ctx, data, confirmation(cmd, yes))
				if err != nil {
					return declined(cmd, err)
				}
				renderImport(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "replace existing data without asking")
	return cmd
}

func newClearCommand(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withLab(cmd, func(ctx context.Context, lab *app.Lab) error {
				if err := lab.Transfer.Clear(ctx, confirmation(cmd, yes)); err != nil {
					return declined(cmd, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "All data cleared.")
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "clear without asking")
	return cmd
}

func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func renderImport(w io.Writer, result *entities.ImportResult) {
	tbl := newTable(w)
	tbl.AppendHeader(rowOf("Collection", "Imported", "Failed"))
	hospital := 0
	if result.Hospital {
		hospital = 1
	}
	tbl.AppendRow(rowOf("hospital", hospital, 0))
	tbl.AppendRow(rowOf("tests", result.Tests.Imported, result.Tests.Failed))
	tbl.AppendRow(rowOf("results", result.Results.Imported, result.Results.Failed))
	tbl.Render()
}
