package commands

import (
	"encoding/json"
	"io"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/zatekoja/medlab/internal/application/aggregation"
	"github.com/zatekoja/medlab/internal/domain/entities"
)

func newTable(w io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Format.Footer = text.FormatDefault
	return tbl
}

func rowOf(values ...any) table.Row {
	return table.Row(values)
}

func money(v float64) string {
	return humanize.CommafWithDigits(v, 2)
}

func count(n int) string {
	return humanize.Comma(int64(n))
}

func day(t time.Time) string {
	return t.Local().Format(entities.DayLayout)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderReport(w io.Writer, report entities.Report) {
	header := report.Header()
	title := header.Title
	if header.DateRange != nil {
		title += " (" + day(header.DateRange.Start) + " to " + day(header.DateRange.End) + ")"
	}

	tbl := newTable(w)
	tbl.SetTitle(title)

	switch r := report.(type) {
	case *entities.PatientReport:
		tbl.AppendHeader(rowOf("ID", "Date", "Patient", "Patient ID", "Tests", "Total"))
		for _, e := range r.Data {
			tbl.AppendRow(rowOf(e.ID, day(e.Date), e.PatientName, e.PatientID, len(e.LineItems), money(aggregation.RevenueOf(e))))
		}
		tbl.AppendFooter(rowOf("", "", count(r.Summary.TotalPatients)+" patients", "", count(r.Summary.TotalTests), money(r.Summary.TotalRevenue)))
	case *entities.FinancialReport:
		tbl.AppendHeader(rowOf("Test", "Count", "Revenue", "Average"))
		for _, line := range r.Data {
			tbl.AppendRow(rowOf(line.Name, count(line.Count), money(line.TotalRevenue), money(line.AveragePrice)))
		}
		tbl.AppendFooter(rowOf(count(r.Summary.TotalPatients)+" patients", "", money(r.Summary.TotalRevenue), money(r.Summary.AveragePerPatient)))
	case *entities.TestsReport:
		tbl.AppendHeader(rowOf("ID", "Test", "Price", "Used", "Revenue"))
		for _, u := range r.Data {
			tbl.AppendRow(rowOf(u.ID, u.Name, money(u.Price), count(u.UsageCount), money(u.TotalRevenue)))
		}
		tbl.AppendFooter(rowOf("", count(r.Summary.TotalTests)+" tests", money(r.Summary.AveragePrice), count(r.Summary.TotalUsage), money(r.Summary.TotalPotentialRevenue)))
	case *entities.SummaryReport:
		if r.Hospital != nil {
			tbl.SetCaption(r.Hospital.Name)
		}
		s := r.Summary
		tbl.AppendRows([]table.Row{
			rowOf("Patients", count(s.TotalPatients)),
			rowOf("Tests performed", count(s.TotalTests)),
			rowOf("Revenue", money(s.TotalRevenue)),
			rowOf("Average per patient", money(s.AveragePerPatient)),
			rowOf("Patients per day", strconv.FormatFloat(s.DailyAverage.Encounters, 'f', 1, 64)),
			rowOf("Revenue per day", money(s.DailyAverage.Revenue)),
			rowOf("Tests per day", strconv.FormatFloat(s.DailyAverage.LineItems, 'f', 1, 64)),
		})
		for _, top := range s.MostUsedTests {
			tbl.AppendRow(rowOf("Top: "+top.Name, count(top.Count)+" ("+top.Percentage+"%)"))
		}
		for _, d := range slices.Sorted(maps.Keys(s.ByDay)) {
			bucket := s.ByDay[d]
			tbl.AppendRow(rowOf("Day "+d, count(bucket.Count)+" / "+money(bucket.Revenue)))
		}
		tbl.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	}

	tbl.Render()
}

func renderStatistics(w io.Writer, stats *entities.Statistics) {
	tbl := newTable(w)
	if stats.Hospital != nil {
		tbl.SetTitle(stats.Hospital.Name)
	}
	tbl.AppendHeader(rowOf("", "Total", "Today", "This month"))
	tbl.AppendRow(rowOf("Patients", count(stats.Patients.Total), count(stats.Patients.Today), count(stats.Patients.ThisMonth)))
	tbl.AppendRow(rowOf("Revenue", money(stats.Revenue.Total), money(stats.Revenue.Today), money(stats.Revenue.ThisMonth)))
	tbl.AppendSeparator()
	tbl.AppendRow(rowOf("Catalog", count(stats.Tests.Total)+" tests", "avg "+money(stats.Tests.AvgPrice), ""))
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	tbl.Render()
}
