package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zatekoja/medlab/internal/app"
	"github.com/zatekoja/medlab/internal/domain/entities"
	apperrors "github.com/zatekoja/medlab/pkg/errors"
)

var starterCatalog = []entities.TestDefinition{
	{Name: "Complete Blood Count", Price: 150, Description: "CBC with differential"},
	{Name: "Fasting Blood Glucose", Price: 50, Description: "Plasma glucose after an 8 hour fast"},
	{Name: "HbA1c", Price: 120, Description: "Glycated haemoglobin"},
	{Name: "Lipid Profile", Price: 200, Description: "Total cholesterol, HDL, LDL and triglycerides"},
	{Name: "Liver Function Test", Price: 220},
	{Name: "Kidney Function Test", Price: 180, Description: "Urea, creatinine and electrolytes"},
	{Name: "Thyroid Stimulating Hormone", Price: 160},
	{Name: "Urinalysis", Price: 40},
	{Name: "Vitamin D", Price: 250, Description: "25-hydroxy vitamin D"},
	{Name: "C-Reactive Protein", Price: 90},
}

func newSeedCommand(opts *rootOptions) *cobra.Command {
	var reset, yes bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Add a starter test catalog",
		Long:  "Adds a starter set of laboratory tests. Tests whose name already exists are skipped.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withLab(cmd, func(ctx context.Context, lab *app.Lab) error {
				if reset {
					if err := lab.Transfer.Clear(ctx, confirmation(cmd, yes)); err != nil {
						return declined(cmd, err)
					}
				}

				added, skipped := 0, 0
				for _, def := range starterCatalog {
					err := lab.Catalog.Add(ctx, &def)
					switch {
					case err == nil:
						added++
					case apperrors.IsDuplicateName(err):
						skipped++
					default:
						return err
					}
					log.Debug().Str("test", def.Name).Err(err).Msg("seeded test")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %d tests, skipped %d existing.\n", added, skipped)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "clear all data before seeding")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask before clearing")
	return cmd
}
