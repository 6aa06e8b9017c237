package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/medlab/internal/application/i18n"
	"github.com/zatekoja/medlab/internal/application/services"
	"github.com/zatekoja/medlab/internal/domain/entities"
)

func TestCachedReportService_ServesFromCache(t *testing.T) {
	ctx := context.Background()
	cache := NewMockCacheProvider()
	f, reports := seedReports(t)
	cached := services.NewCachedReportService(reports, cache, 60, nil)

	first, err := cached.Generate(ctx, entities.ReportRequest{Kind: entities.ReportPatient})
	require.NoError(t, err)
	require.Len(t, cache.Keys(services.ReportCachePrefix), 1)

	// A write that bypasses invalidation is not visible until the entry goes.
	f.recordAt(t, testNow, "P-9", f.addTest(t, "Ferritin", 70))
	second, err := cached.Generate(ctx, entities.ReportRequest{Kind: entities.ReportPatient, Range: entities.RangeToday})
	require.NoError(t, err)
	assert.Equal(t, first.(*entities.PatientReport).Summary, second.(*entities.PatientReport).Summary)
	assert.True(t, first.Header().GeneratedAt.Equal(second.Header().GeneratedAt))

	require.NoError(t, services.NewCacheInvalidationService(cache, nil).InvalidateReports(ctx))
	third, err := cached.Generate(ctx, entities.ReportRequest{Kind: entities.ReportPatient})
	require.NoError(t, err)
	assert.Equal(t, 3, third.(*entities.PatientReport).Summary.TotalPatients)
}

func TestCachedReportService_KeysByKindRangeAndLanguage(t *testing.T) {
	ctx := context.Background()
	cache := NewMockCacheProvider()
	_, reports := seedReports(t)
	cached := services.NewCachedReportService(reports, cache, 60, nil)

	for _, req := range []entities.ReportRequest{
		{Kind: entities.ReportSummary},
		{Kind: entities.ReportSummary, Language: "en"},
		{Kind: entities.ReportSummary, Range: entities.RangeMonth},
		{Kind: entities.ReportTests, Range: entities.RangeWeek},
		{Kind: entities.ReportTests, Range: entities.RangeYear},
	} {
		_, err := cached.Generate(ctx, req)
		require.NoError(t, err)
	}
	assert.Len(t, cache.Keys(services.ReportCachePrefix), 4)

	report, err := cached.Generate(ctx, entities.ReportRequest{Kind: entities.ReportSummary, Language: "en-US"})
	require.NoError(t, err)
	assert.Equal(t, "Summary Report", report.Header().Title)
}

func TestCachedReportService_WriteDropsCachedReports(t *testing.T) {
	ctx := context.Background()
	cache := NewMockCacheProvider()
	invalidation := services.NewCacheInvalidationService(cache, nil)
	f := newLabFixture(t, invalidation)
	reports := services.NewReportService(f.store, i18n.New("ar"), nil).WithClock(f.clock.Now)
	cached := services.NewCachedReportService(reports, cache, 60, nil)

	report, err := cached.Generate(ctx, entities.ReportRequest{Kind: entities.ReportTests})
	require.NoError(t, err)
	assert.Equal(t, 0, report.(*entities.TestsReport).Summary.TotalTests)
	require.NoError(t, cache.Set(ctx, "session:1", []byte("keep"), 60))

	f.addTest(t, "CBC", 150)
	assert.Empty(t, cache.Keys(services.ReportCachePrefix))
	assert.Len(t, cache.Keys("session:"), 1)

	report, err = cached.Generate(ctx, entities.ReportRequest{Kind: entities.ReportTests})
	require.NoError(t, err)
	assert.Equal(t, 1, report.(*entities.TestsReport).Summary.TotalTests)
}

func TestCachedReportService_CacheFailureStillServes(t *testing.T) {
	cache := NewMockCacheProvider()
	cache.failSet = true
	_, reports := seedReports(t)
	cached := services.NewCachedReportService(reports, cache, 60, nil)

	report, err := cached.Generate(context.Background(), entities.ReportRequest{Kind: entities.ReportFinancial})
	require.NoError(t, err)
	assert.Equal(t, 350.0, report.(*entities.FinancialReport).Summary.TotalRevenue)

	stats, err := cached.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Patients.Total)
}

func TestCacheWarmingService_WarmsMissingReports(t *testing.T) {
	ctx := context.Background()
	cache := NewMockCacheProvider()
	_, reports := seedReports(t)
	cached := services.NewCachedReportService(reports, cache, 60, nil)
	warmer := services.NewCacheWarmingService(cached, cache, "ar", "en")

	assert.Equal(t, 10, warmer.WarmCache(ctx))
	assert.Len(t, cache.Keys(services.ReportCachePrefix), 10)
	assert.Equal(t, 0, warmer.WarmCache(ctx))
}
