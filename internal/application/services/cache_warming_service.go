package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/medlab/internal/domain/entities"
	"github.com/zatekoja/medlab/internal/domain/providers"
)

// warmedReports are the reports the dashboard asks for most
var warmedReports = []entities.ReportRequest{
	{Kind: entities.ReportSummary, Range: entities.RangeToday},
	{Kind: entities.ReportSummary, Range: entities.RangeMonth},
	{Kind: entities.ReportFinancial, Range: entities.RangeToday},
	{Kind: entities.ReportFinancial, Range: entities.RangeMonth},
	{Kind: entities.ReportTests},
}

// CacheWarmingService pre-generates frequently requested reports
type CacheWarmingService struct {
	reports   *CachedReportService
	cache     providers.CacheProvider
	languages []string
}

// NewCacheWarmingService creates a new cache warming service. Each warmed
// report is generated once per language; an empty list warms the default
// language only.
func NewCacheWarmingService(reports *CachedReportService, cache providers.CacheProvider, languages ...string) *CacheWarmingService {
	if len(languages) == 0 {
		languages = []string{""}
	}
	return &CacheWarmingService{reports: reports, cache: cache, languages: languages}
}

// WarmCache generates every warmed report that is not cached yet and
// returns how many it generated
func (s *CacheWarmingService) WarmCache(ctx context.Context) int {
	warmed := 0
	for _, lang := range s.languages {
		for _, req := range warmedReports {
			req.Language = lang
			cached, err := s.isCached(ctx, req)
			if err != nil {
				log.Warn().Err(err).Str("kind", string(req.Kind)).Msg("skipping report warm-up")
				continue
			}
			if cached {
				continue
			}
			if _, err := s.reports.Generate(ctx, req); err != nil {
				log.Warn().Err(err).Str("kind", string(req.Kind)).Str("range", string(req.Range)).Msg("failed to warm report")
				continue
			}
			warmed++
		}
	}
	log.Debug().Int("warmed", warmed).Msg("report cache warmed")
	return warmed
}

func (s *CacheWarmingService) isCached(ctx context.Context, req entities.ReportRequest) (bool, error) {
	req, resolved, err := s.reports.reports.Resolve(req)
	if err != nil {
		return false, err
	}
	return s.cache.Exists(ctx, ReportCachePrefix+req.CacheKey(resolved))
}

// StartPeriodicWarming warms once and then every interval until ctx is done
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	s.WarmCache(ctx)

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("stopping report cache warming")
				return
			case <-ticker.C:
				s.WarmCache(ctx)
			}
		}
	}()
	log.Info().Dur("interval", interval).Msg("started periodic report cache warming")
}
