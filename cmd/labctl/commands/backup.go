package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zatekoja/medlab/internal/app"
)

func newBackupCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write an export file to the backup destination",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withLab(cmd, func(ctx context.Context, lab *app.Lab) error {
				key, err := lab.Transfer.Backup(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), key)
				return nil
			})
		},
	}

	cmd.AddCommand(newBackupListCommand(opts), newBackupRestoreCommand(opts))
	return cmd
}

func newBackupListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored backups, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withLab(cmd, func(ctx context.Context, lab *app.Lab) error {
				keys, err := lab.Transfer.ListBackups(ctx)
				if err != nil {
					return err
				}
				for _, key := range keys {
					fmt.Fprintln(cmd.OutOrStdout(), key)
				}
				return nil
			})
		},
	}
}

func newBackupRestoreCommand(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "restore <key>",
		Short: "Replace the store with a stored backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withLab(cmd, func(ctx context.Context, lab *app.Lab) error {
				result, err := lab.Transfer.Restore(ctx, args[0], confirmation(cmd, yes))
				if err != nil {
					return declined(cmd, err)
				}
				renderImport(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "restore without asking")
	return cmd
}
