// Package app assembles the store, cache and services from configuration.
// Both the HTTP server and the labctl command build on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/medlab/internal/adapters/backup"
	"github.com/zatekoja/medlab/internal/adapters/cache"
	"github.com/zatekoja/medlab/internal/adapters/database"
	"github.com/zatekoja/medlab/internal/adapters/events"
	"github.com/zatekoja/medlab/internal/adapters/transfer"
	"github.com/zatekoja/medlab/internal/application/i18n"
	"github.com/zatekoja/medlab/internal/application/services"
	"github.com/zatekoja/medlab/internal/domain/providers"
	"github.com/zatekoja/medlab/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/medlab/internal/infrastructure/clients/redis"
	"github.com/zatekoja/medlab/internal/infrastructure/clients/sqlite"
	"github.com/zatekoja/medlab/internal/infrastructure/observability"
	"github.com/zatekoja/medlab/pkg/config"
)

// CacheKeyPrefix namespaces every cache key this process writes
const CacheKeyPrefix = "medlab:"

// Lab holds the wired services of one process
type Lab struct {
	Store      *database.Store
	Translator *i18n.Translator
	Hospital   *services.HospitalService
	Catalog    *services.CatalogService
	Encounters *services.EncounterService
	Reports    services.ReportGenerator
	Transfer   *services.TransferService

	warming      *services.CacheWarmingService
	invalidation *services.CacheInvalidationService
	eventBus     providers.EventBus
	redis        *redis.Client
}

// OpenStore connects to the configured SQL backend and migrates its schema
func OpenStore(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) (*database.Store, error) {
	var client database.SQLClient
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pg, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		client = pg
	default:
		lite, err := sqlite.NewClient(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		client = lite
	}

	store, err := database.Open(ctx, client, database.WithMetrics(metrics))
	if err != nil {
		client.Close()
		return nil, err
	}
	return store, nil
}

// New builds the services described by cfg. Redis is optional: when it is
// disabled or unreachable reports are generated on every request.
func New(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) (*Lab, error) {
	store, err := OpenStore(ctx, cfg, metrics)
	if err != nil {
		return nil, err
	}

	lab := &Lab{
		Store:      store,
		Translator: i18n.New(cfg.App.DefaultLanguage),
	}

	var cacheProvider providers.CacheProvider
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, report cache disabled")
		} else {
			lab.redis = redisClient
			cacheProvider = cache.NewRedisAdapter(redisClient, CacheKeyPrefix)
			lab.eventBus = events.NewRedisEventBus(redisClient)
			log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("redis cache enabled")
		}
	}

	var notifier services.ChangeNotifier
	if cacheProvider != nil {
		lab.invalidation = services.NewCacheInvalidationService(cacheProvider, lab.eventBus)
		if err := lab.invalidation.Start(); err != nil {
			log.Warn().Err(err).Msg("failed to start cache invalidation listener")
		}
		notifier = lab.invalidation
	}

	lab.Hospital = services.NewHospitalService(store.Hospital(), notifier)
	lab.Catalog = services.NewCatalogService(store.Tests(), notifier)
	lab.Encounters = services.NewEncounterService(store.Encounters(), store.Tests(), notifier)

	reports := services.NewReportService(store, lab.Translator, metrics)
	lab.Reports = reports
	if cacheProvider != nil {
		cached := services.NewCachedReportService(reports, cacheProvider, cfg.Reports.CacheTTLSeconds, metrics)
		lab.Reports = cached
		lab.warming = services.NewCacheWarmingService(cached, cacheProvider, lab.Translator.Default().String())
	}

	sink, err := backup.NewSink(ctx, &cfg.Backup)
	if err != nil {
		log.Warn().Err(err).Str("driver", cfg.Backup.Driver).Msg("backups disabled")
		sink = nil
	}
	lab.Transfer = services.NewTransferService(store, transfer.Codec{}, sink, notifier)

	return lab, nil
}

// StartBackground refreshes the report cache until ctx is done. It is a
// no-op without a cache.
func (l *Lab) StartBackground(ctx context.Context, interval time.Duration) {
	if l.warming == nil {
		return
	}
	go l.warming.StartPeriodicWarming(ctx, interval)
}

// Close releases the store and any cache connections
func (l *Lab) Close() error {
	var errs []error
	if l.invalidation != nil {
		l.invalidation.Stop()
	}
	if l.eventBus != nil {
		if err := l.eventBus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close event bus: %w", err))
		}
	}
	if l.redis != nil {
		if err := l.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if err := l.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}
