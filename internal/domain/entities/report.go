package entities

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/zatekoja/medlab/pkg/errors"
)

// ReportKind selects one of the fixed report shapes.
type ReportKind string

const (
	ReportPatient   ReportKind = "patient"
	ReportFinancial ReportKind = "financial"
	ReportTests     ReportKind = "tests"
	ReportSummary   ReportKind = "summary"
)

// ReportKinds lists every supported kind in display order.
var ReportKinds = []ReportKind{ReportPatient, ReportFinancial, ReportTests, ReportSummary}

// ParseReportKind maps a user supplied name to a kind.
func ParseReportKind(name string) (ReportKind, error) {
	kind := ReportKind(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range ReportKinds {
		if kind == known {
			return kind, nil
		}
	}
	return "", apperrors.NewUnsupportedReportTypeError(name)
}

// Report is implemented by every generated report.
type Report interface {
	Header() ReportHeader
}

// ReportHeader is shared by all report shapes.
type ReportHeader struct {
	Title       string     `json:"title"`
	Type        ReportKind `json:"type"`
	Language    string     `json:"language"`
	DateRange   *DateRange `json:"dateRange,omitempty"`
	GeneratedAt time.Time  `json:"generatedAt"`
}

// Header returns the header itself so embedding types satisfy Report.
func (h ReportHeader) Header() ReportHeader {
	return h
}

// PatientReport lists the encounters in a range.
type PatientReport struct {
	ReportHeader
	Summary PatientSummary `json:"summary"`
	Data    []*Encounter   `json:"data"`
}

// PatientSummary totals a patient report.
type PatientSummary struct {
	TotalPatients int     `json:"totalPatients"`
	TotalTests    int     `json:"totalTests"`
	TotalRevenue  float64 `json:"totalRevenue"`
}

// FinancialReport breaks revenue down by test name.
type FinancialReport struct {
	ReportHeader
	Summary FinancialSummary `json:"summary"`
	Data    []FinancialLine  `json:"data"`
}

// FinancialSummary totals a financial report.
type FinancialSummary struct {
	TotalRevenue      float64 `json:"totalRevenue"`
	TotalPatients     int     `json:"totalPatients"`
	AveragePerPatient float64 `json:"averagePerPatient"`
}

// FinancialLine is the revenue of one test name.
type FinancialLine struct {
	Name         string  `json:"name"`
	Count        int     `json:"count"`
	TotalRevenue float64 `json:"totalRevenue"`
	AveragePrice float64 `json:"averagePrice"`
}

// TestsReport shows catalog usage. It is not bounded by a date range.
type TestsReport struct {
	ReportHeader
	Summary TestsSummary `json:"summary"`
	Data    []TestUsage  `json:"data"`
}

// TestsSummary totals a tests report.
type TestsSummary struct {
	TotalTests            int     `json:"totalTests"`
	TotalUsage            int     `json:"totalUsage"`
	TotalPotentialRevenue float64 `json:"totalPotentialRevenue"`
	AveragePrice          float64 `json:"averagePrice"`
}

// TestUsage is one catalog test with its usage across all encounters.
// TotalRevenue uses the current catalog price.
type TestUsage struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Description  string  `json:"description"`
	UsageCount   int     `json:"usageCount"`
	TotalRevenue float64 `json:"totalRevenue"`
}

// SummaryReport is the one page overview of a range.
type SummaryReport struct {
	ReportHeader
	Hospital *HospitalProfile `json:"hospital"`
	Summary  SummaryTotals    `json:"summary"`
}

// SummaryTotals holds the figures of a summary report.
type SummaryTotals struct {
	TotalTests        int          `json:"totalTests"`
	TotalPatients     int          `json:"totalPatients"`
	TotalRevenue      float64      `json:"totalRevenue"`
	AveragePerPatient float64      `json:"averagePerPatient"`
	MostUsedTests     []TopTest    `json:"mostUsedTests"`
	DailyAverage      DailyAverage `json:"dailyAverage"`
	// ByDay buckets the range's encounters by calendar day (DayLayout keys).
	ByDay map[string]DayBucket `json:"byDay"`
}

// UsageCount is how many line items carried a test name.
type UsageCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TopTest is a usage count with its share of all line items, formatted to
// one decimal place.
type TopTest struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	Percentage string `json:"percentage"`
}

// DailyAverage holds per-day averages over a range.
type DailyAverage struct {
	Encounters float64 `json:"encounterCount"`
	Revenue    float64 `json:"revenue"`
	LineItems  float64 `json:"lineItemCount"`
}

// DayBucket totals the encounters of one calendar day.
type DayBucket struct {
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
}

// Statistics is the dashboard panel.
type Statistics struct {
	Hospital *HospitalProfile  `json:"hospital"`
	Tests    CatalogStatistics `json:"tests"`
	Patients WindowCounts      `json:"patients"`
	Revenue  WindowRevenue     `json:"revenue"`
}

// CatalogStatistics describes the test catalog.
type CatalogStatistics struct {
	Total    int     `json:"total"`
	AvgPrice float64 `json:"avgPrice"`
}

// WindowCounts counts encounters over all time, today and this month.
type WindowCounts struct {
	Total     int `json:"total"`
	Today     int `json:"today"`
	ThisMonth int `json:"thisMonth"`
}

// WindowRevenue sums revenue over all time, today and this month.
type WindowRevenue struct {
	Total     float64 `json:"total"`
	Today     float64 `json:"today"`
	ThisMonth float64 `json:"thisMonth"`
}

// ReportRequest describes the report to generate.
type ReportRequest struct {
	Kind     ReportKind
	Range    RangePreset
	Start    time.Time
	End      time.Time
	Language string
}

// CacheKey identifies a generated report for a resolved range.
func (r ReportRequest) CacheKey(resolved DateRange) string {
	if r.Kind == ReportTests {
		return fmt.Sprintf("%s:all:%s", r.Kind, r.Language)
	}
	return fmt.Sprintf("%s:%d-%d:%s", r.Kind, resolved.Start.UnixMilli(), resolved.End.UnixMilli(), r.Language)
}
