package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/medlab/internal/domain/entities"
	"github.com/zatekoja/medlab/internal/domain/providers"
	"github.com/zatekoja/medlab/internal/infrastructure/observability"
)

// CacheInvalidationService drops cached reports after every write. Writes
// made by this instance invalidate synchronously; when an event bus is
// configured they are also published so other instances sharing the cache
// and store invalidate too.
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	origin   string
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewCacheInvalidationService creates a new cache invalidation service.
// eventBus may be nil.
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		origin:   uuid.NewString(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

var _ ChangeNotifier = (*CacheInvalidationService)(nil)

// Start begins listening for change events from other instances
func (s *CacheInvalidationService) Start() error {
	if s.eventBus == nil {
		return nil
	}
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelStoreChanges)
	if err != nil {
		return fmt.Errorf("failed to subscribe to store changes: %w", err)
	}

	go s.processEvents(eventChan)
	log.Info().Str("origin", s.origin).Msg("cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	log.Info().Msg("cache invalidation service stopped")
}

// Notify invalidates cached reports and announces the change
func (s *CacheInvalidationService) Notify(ctx context.Context, collection entities.Collection, action entities.ChangeAction, recordID int64) {
	logger := observability.LoggerFromContext(ctx)
	if err := s.InvalidateReports(ctx); err != nil {
		logger.Warn().Err(err).Str("collection", string(collection)).Msg("failed to invalidate cached reports")
	}

	if s.eventBus == nil {
		return
	}
	event := &entities.ChangeEvent{
		ID:         uuid.NewString(),
		Origin:     s.origin,
		Collection: collection,
		Action:     action,
		RecordID:   recordID,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.eventBus.Publish(ctx, providers.EventChannelStoreChanges, event); err != nil {
		logger.Warn().Err(err).Str("event_id", event.ID).Msg("failed to publish change event")
	}
}

// processEvents processes change events until the service stops
func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.ChangeEvent) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil || event.Origin == s.origin {
				continue
			}
			s.handleEvent(event)
		}
	}
}

// handleEvent handles a change made by another instance
func (s *CacheInvalidationService) handleEvent(event *entities.ChangeEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.InvalidateReports(ctx); err != nil {
		log.Warn().Err(err).Str("event_id", event.ID).Msg("failed to invalidate cached reports")
		return
	}
	log.Debug().
		Str("event_id", event.ID).
		Str("collection", string(event.Collection)).
		Str("action", string(event.Action)).
		Msg("invalidated cached reports for remote change")
}

// InvalidateReports removes every cached report
func (s *CacheInvalidationService) InvalidateReports(ctx context.Context) error {
	if err := s.cache.DeletePattern(ctx, ReportCachePrefix+"*"); err != nil {
		return fmt.Errorf("failed to invalidate pattern %s*: %w", ReportCachePrefix, err)
	}
	return nil
}
