package services

import (
	"context"
	"time"

	"github.com/zatekoja/medlab/internal/application/aggregation"
	"github.com/zatekoja/medlab/internal/application/i18n"
	"github.com/zatekoja/medlab/internal/domain/entities"
	"github.com/zatekoja/medlab/internal/domain/repositories"
	"github.com/zatekoja/medlab/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/medlab/pkg/errors"
	"golang.org/x/text/language"
)

// ReportGenerator produces reports and the statistics panel
type ReportGenerator interface {
	Generate(ctx context.Context, req entities.ReportRequest) (entities.Report, error)
	Statistics(ctx context.Context) (*entities.Statistics, error)
}

// ReportService composes aggregation results into the fixed report shapes
type ReportService struct {
	hospital   repositories.HospitalRepository
	tests      repositories.TestDefinitionRepository
	encounters repositories.EncounterRepository
	translator *i18n.Translator
	metrics    *observability.Metrics
	now        func() time.Time
}

// NewReportService creates a new report service
func NewReportService(gateway repositories.Gateway, translator *i18n.Translator, metrics *observability.Metrics) *ReportService {
	return &ReportService{
		hospital:   gateway.Hospital(),
		tests:      gateway.Tests(),
		encounters: gateway.Encounters(),
		translator: translator,
		metrics:    metrics,
		now:        time.Now,
	}
}

// WithClock overrides the time ranges are resolved against
func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	return s
}

// Resolve validates req and fixes its range and language. It never touches
// the store.
func (s *ReportService) Resolve(req entities.ReportRequest) (entities.ReportRequest, entities.DateRange, error) {
	kind, err := entities.ParseReportKind(string(req.Kind))
	if err != nil {
		return req, entities.DateRange{}, err
	}
	req.Kind = kind
	if req.Range == "" {
		req.Range = entities.RangeToday
	}

	var resolved entities.DateRange
	if kind != entities.ReportTests {
		resolved, err = entities.ResolveRange(req.Range, s.now(), req.Start, req.End)
		if err != nil {
			return req, entities.DateRange{}, err
		}
	}

	req.Language = i18n.Code(s.translator.Match(req.Language))
	return req, resolved, nil
}

// Generate builds the report req asks for. Unknown kinds and bad ranges
// fail before any query runs.
func (s *ReportService) Generate(ctx context.Context, req entities.ReportRequest) (entities.Report, error) {
	req, resolved, err := s.Resolve(req)
	if err != nil {
		return nil, err
	}
	report, err := s.build(ctx, req, resolved)
	if err != nil {
		return nil, err
	}
	observability.RecordReport(ctx, s.metrics, string(req.Kind), false)
	return report, nil
}

func (s *ReportService) build(ctx context.Context, req entities.ReportRequest, resolved entities.DateRange) (entities.Report, error) {
	tag := language.Make(req.Language)
	header := entities.ReportHeader{Type: req.Kind, Language: req.Language, GeneratedAt: s.now()}
	if req.Kind != entities.ReportTests {
		r := resolved
		header.DateRange = &r
	}

	switch req.Kind {
	case entities.ReportPatient:
		header.Title = s.translator.T(tag, i18n.KeyPatientReport)
		return s.patientReport(ctx, header, resolved)
	case entities.ReportFinancial:
		header.Title = s.translator.T(tag, i18n.KeyFinancialReport)
		return s.financialReport(ctx, header, resolved, tag)
	case entities.ReportTests:
		header.Title = s.translator.T(tag, i18n.KeyTestsReport)
		return s.testsReport(ctx, header, tag)
	case entities.ReportSummary:
		header.Title = s.translator.T(tag, i18n.KeySummaryReport)
		return s.summaryReport(ctx, header, resolved, tag)
	}
	return nil, apperrors.NewUnsupportedReportTypeError(string(req.Kind))
}

func (s *ReportService) patientReport(ctx context.Context, header entities.ReportHeader, r entities.DateRange) (*entities.PatientReport, error) {
	encounters, err := s.encounters.ListByDateRange(ctx, r.Start, r.End)
	if err != nil {
		return nil, err
	}
	return &entities.PatientReport{
		ReportHeader: header,
		Summary: entities.PatientSummary{
			TotalPatients: len(encounters),
			TotalTests:    aggregation.LineItemCount(encounters),
			TotalRevenue:  aggregation.TotalRevenue(encounters),
		},
		Data: nonNilEncounters(encounters),
	}, nil
}

func (s *ReportService) financialReport(ctx context.Context, header entities.ReportHeader, r entities.DateRange, tag language.Tag) (*entities.FinancialReport, error) {
	encounters, err := s.encounters.ListByDateRange(ctx, r.Start, r.End)
	if err != nil {
		return nil, err
	}
	revenue := aggregation.TotalRevenue(encounters)
	return &entities.FinancialReport{
		ReportHeader: header,
		Summary: entities.FinancialSummary{
			TotalRevenue:      revenue,
			TotalPatients:     len(encounters),
			AveragePerPatient: aggregation.AveragePerEncounter(revenue, len(encounters)),
		},
		Data: aggregation.FinancialBreakdown(encounters, s.translator.T(tag, i18n.KeyUnspecifiedTest)),
	}, nil
}

func (s *ReportService) testsReport(ctx context.Context, header entities.ReportHeader, tag language.Tag) (*entities.TestsReport, error) {
	tests, err := s.tests.List(ctx)
	if err != nil {
		return nil, err
	}
	encounters, err := s.encounters.List(ctx)
	if err != nil {
		return nil, err
	}

	usage := aggregation.TestUsage(tests, encounters, s.translator.T(tag, i18n.KeyNoDescription))
	summary := entities.TestsSummary{
		TotalTests:   len(tests),
		AveragePrice: aggregation.AveragePrice(tests),
	}
	for _, u := range usage {
		summary.TotalUsage += u.UsageCount
		summary.TotalPotentialRevenue += u.TotalRevenue
	}
	return &entities.TestsReport{ReportHeader: header, Summary: summary, Data: usage}, nil
}

func (s *ReportService) summaryReport(ctx context.Context, header entities.ReportHeader, r entities.DateRange, tag language.Tag) (*entities.SummaryReport, error) {
	hospital, err := s.hospital.Get(ctx)
	if apperrors.IsNotFound(err) {
		hospital, err = &entities.HospitalProfile{Name: s.translator.T(tag, i18n.KeyUnspecifiedHospital)}, nil
	}
	if err != nil {
		return nil, err
	}
	tests, err := s.tests.List(ctx)
	if err != nil {
		return nil, err
	}
	encounters, err := s.encounters.ListByDateRange(ctx, r.Start, r.End)
	if err != nil {
		return nil, err
	}

	revenue := aggregation.TotalRevenue(encounters)
	return &entities.SummaryReport{
		ReportHeader: header,
		Hospital:     hospital,
		Summary: entities.SummaryTotals{
			TotalTests:        len(tests),
			TotalPatients:     len(encounters),
			TotalRevenue:      revenue,
			AveragePerPatient: aggregation.AveragePerEncounter(revenue, len(encounters)),
			MostUsedTests:     aggregation.TopN(aggregation.UsageCounts(encounters), aggregation.DefaultTopN),
			DailyAverage:      aggregation.DailyAverage(encounters, r.Start, r.End),
			ByDay:             aggregation.BucketByDay(encounters, r.Start.Location()),
		},
	}, nil
}

// Statistics builds the dashboard panel over the whole store
func (s *ReportService) Statistics(ctx context.Context) (*entities.Statistics, error) {
	hospital, err := s.hospital.Get(ctx)
	if err != nil && !apperrors.IsNotFound(err) {
		return nil, err
	}
	tests, err := s.tests.List(ctx)
	if err != nil {
		return nil, err
	}
	encounters, err := s.encounters.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := aggregation.Dashboard(s.now(), tests, encounters)
	stats.Hospital = hospital
	return &stats, nil
}

func nonNilEncounters(encounters []*entities.Encounter) []*entities.Encounter {
	if encounters == nil {
		return []*entities.Encounter{}
	}
	return encounters
}
