package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zatekoja/medlab/internal/domain/entities"
	"github.com/zatekoja/medlab/internal/domain/providers"
	"github.com/zatekoja/medlab/internal/infrastructure/observability"
)

// ReportCachePrefix is the key prefix of every cached report
const ReportCachePrefix = "report:"

// CachedReportService serves reports from the cache when it can and fills
// it otherwise. Cache failures are logged and never fail a request.
type CachedReportService struct {
	reports *ReportService
	cache   providers.CacheProvider
	ttl     int
	metrics *observability.Metrics
}

// NewCachedReportService wraps reports with cache. ttlSeconds bounds how
// long a report may be served after it was generated.
func NewCachedReportService(reports *ReportService, cache providers.CacheProvider, ttlSeconds int, metrics *observability.Metrics) *CachedReportService {
	return &CachedReportService{reports: reports, cache: cache, ttl: ttlSeconds, metrics: metrics}
}

var _ ReportGenerator = (*CachedReportService)(nil)

// Generate returns the cached report for req's resolved range and language,
// generating and caching it on a miss.
func (s *CachedReportService) Generate(ctx context.Context, req entities.ReportRequest) (entities.Report, error) {
	req, resolved, err := s.reports.Resolve(req)
	if err != nil {
		return nil, err
	}
	key := ReportCachePrefix + req.CacheKey(resolved)
	logger := observability.LoggerFromContext(ctx)

	if data, err := s.cache.Get(ctx, key); err == nil && len(data) > 0 {
		report, decodeErr := decodeReport(req.Kind, data)
		if decodeErr == nil {
			observability.RecordCacheHit(ctx, s.metrics, key)
			observability.RecordReport(ctx, s.metrics, string(req.Kind), true)
			return report, nil
		}
		logger.Warn().Err(decodeErr).Str("key", key).Msg("discarding unreadable cached report")
	}
	observability.RecordCacheMiss(ctx, s.metrics, key)

	report, err := s.reports.build(ctx, req, resolved)
	if err != nil {
		return nil, err
	}
	observability.RecordReport(ctx, s.metrics, string(req.Kind), false)

	data, err := json.Marshal(report)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("failed to encode report for cache")
		return report, nil
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("failed to cache report")
	}
	return report, nil
}

// Statistics is always computed fresh
func (s *CachedReportService) Statistics(ctx context.Context) (*entities.Statistics, error) {
	return s.reports.Statistics(ctx)
}

func decodeReport(kind entities.ReportKind, data []byte) (entities.Report, error) {
	var report entities.Report
	switch kind {
	case entities.ReportPatient:
		report = &entities.PatientReport{}
	case entities.ReportFinancial:
		report = &entities.FinancialReport{}
	case entities.ReportTests:
		report = &entities.TestsReport{}
	case entities.ReportSummary:
		report = &entities.SummaryReport{}
	default:
		return nil, fmt.Errorf("unknown report kind %q", kind)
	}
	if err := json.Unmarshal(data, report); err != nil {
		return nil, err
	}
	return report, nil
}
