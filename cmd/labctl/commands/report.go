package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/zatekoja/medlab/internal/app"
	"github.com/zatekoja/medlab/internal/domain/entities"
)

type reportOptions struct {
	rangeName string
	from      string
	to        string
	lang      string
	asJSON    bool
}

func newReportCommand(opts *rootOptions) *cobra.Command {
	ro := &reportOptions{}

	cmd := &cobra.Command{
		Use:       "report <patient|financial|tests|summary>",
		Short:     "Generate a report",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"patient", "financial", "tests", "summary"},
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := ro.request(args[0], time.Local)
			if err != nil {
				return err
			}
			return opts.withLab(cmd, func(ctx context.Context, lab *app.Lab) error {
				report, err := lab.Reports.Generate(ctx, req)
				if err != nil {
					return err
				}
				if ro.asJSON {
					return writeJSON(cmd.OutOrStdout(), report)
				}
				renderReport(cmd.OutOrStdout(), report)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&ro.rangeName, "range", "r", "today", "date range: today, week, month, year or custom")
	cmd.Flags().StringVar(&ro.from, "from", "", "first day of a custom range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&ro.to, "to", "", "last day of a custom range (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&ro.lang, "lang", "l", "", "report language, such as ar, en or fr")
	cmd.Flags().BoolVar(&ro.asJSON, "json", false, "print the report as JSON")
	return cmd
}

func (ro *reportOptions) request(kindName string, loc *time.Location) (entities.ReportRequest, error) {
	kind, err := entities.ParseReportKind(kindName)
	if err != nil {
		return entities.ReportRequest{}, err
	}
	preset, err := entities.ParseRangePreset(ro.rangeName)
	if err != nil {
		return entities.ReportRequest{}, err
	}
	// Giving dates implies a custom range
	if (ro.from != "" || ro.to != "") && preset == entities.RangeToday {
		preset = entities.RangeCustom
	}
	start, err := entities.ParseDate(ro.from, loc)
	if err != nil {
		return entities.ReportRequest{}, err
	}
	end, err := entities.ParseDate(ro.to, loc)
	if err != nil {
		return entities.ReportRequest{}, err
	}
	return entities.ReportRequest{Kind: kind, Range: preset, Start: start, End: end, Language: ro.lang}, nil
}

func newStatsCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the dashboard statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withLab(cmd, func(ctx context.Context, lab *app.Lab) error {
				stats, err := lab.Reports.Statistics(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), stats)
				}
				renderStatistics(cmd.OutOrStdout(), stats)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the statistics as JSON")
	return cmd
}
