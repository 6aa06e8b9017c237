package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/medlab/internal/domain/entities"
	"github.com/zatekoja/medlab/internal/domain/providers"
	redisclient "github.com/zatekoja/medlab/internal/infrastructure/clients/redis"
)

const subscriberBuffer = 64

// feed is one Redis subscription fanned out to local subscribers.
type feed struct {
	pubsub      *redis.PubSub
	subscribers map[chan *entities.ChangeEvent]struct{}
}

// RedisEventBus carries store change events between medlab instances over
// Redis pub/sub.
type RedisEventBus struct {
	client *redisclient.Client
	mu     sync.RWMutex
	feeds  map[string]*feed
	ctx    context.Context
	cancel context.CancelFunc
}

func NewRedisEventBus(client *redisclient.Client) providers.EventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client: client,
		feeds:  make(map[string]*feed),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Publish validates the event, fills in a missing id and timestamp, and
// sends it to every instance subscribed to channel.
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.ChangeEvent) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("refusing to publish: %w", err)
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode change event: %w", err)
	}
	if err := b.client.Client().Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish change event: %w", err)
	}

	log.Debug().
		Str("channel", channel).
		Str("event_id", event.ID).
		Str("collection", string(event.Collection)).
		Str("action", string(event.Action)).
		Msg("published change event")
	return nil
}

// Subscribe returns a buffered stream of events on channel. The stream is
// closed when ctx ends, on Unsubscribe or on Close.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ChangeEvent, error) {
	if b.ctx.Err() != nil {
		return nil, errors.New("event bus is closed")
	}

	out := make(chan *entities.ChangeEvent, subscriberBuffer)

	b.mu.Lock()
	f, ok := b.feeds[channel]
	if !ok {
		f = &feed{
			pubsub:      b.client.Client().Subscribe(b.ctx, channel),
			subscribers: make(map[chan *entities.ChangeEvent]struct{}),
		}
		b.feeds[channel] = f
		go b.pump(channel, f)
	}
	f.subscribers[out] = struct{}{}
	count := len(f.subscribers)
	b.mu.Unlock()

	log.Info().Str("channel", channel).Int("subscribers", count).Msg("subscribed to change events")

	go func() {
		select {
		case <-ctx.Done():
		case <-b.ctx.Done():
		}
		b.leave(channel, out)
	}()
	return out, nil
}

func (b *RedisEventBus) pump(channel string, f *feed) {
	defer b.drop(channel, f)

	messages := f.pubsub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			event, err := decode(msg.Payload)
			if err != nil {
				log.Warn().Err(err).Str("channel", channel).Msg("dropping change event")
				continue
			}
			b.fanOut(channel, f, event)
		}
	}
}

func decode(payload string) (*entities.ChangeEvent, error) {
	var event entities.ChangeEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, fmt.Errorf("malformed change event: %w", err)
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return &event, nil
}

// fanOut never blocks; a full subscriber misses the event.
func (b *RedisEventBus) fanOut(channel string, f *feed, event *entities.ChangeEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for subscriber := range f.subscribers {
		select {
		case subscriber <- event:
		default:
			log.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("subscriber full, change event skipped")
		}
	}
}

// leave removes one subscriber and ends the feed once nobody listens.
func (b *RedisEventBus) leave(channel string, out chan *entities.ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	f, ok := b.feeds[channel]
	if !ok {
		return
	}
	if _, ok := f.subscribers[out]; !ok {
		return
	}
	delete(f.subscribers, out)
	close(out)

	if len(f.subscribers) == 0 {
		delete(b.feeds, channel)
		_ = f.pubsub.Close()
	}
}

// drop tears down f if it is still the registered feed for channel.
func (b *RedisEventBus) drop(channel string, f *feed) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.feeds[channel] != f {
		return
	}
	if err := b.closeFeed(channel, f); err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("failed to close change event feed")
	}
}

// closeFeed must be called with mu held.
func (b *RedisEventBus) closeFeed(channel string, f *feed) error {
	for subscriber := range f.subscribers {
		close(subscriber)
	}
	f.subscribers = nil
	delete(b.feeds, channel)
	if err := f.pubsub.Close(); err != nil {
		return fmt.Errorf("close subscription %s: %w", channel, err)
	}
	return nil
}

// Unsubscribe closes every local stream on channel.
func (b *RedisEventBus) Unsubscribe(_ context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	f, ok := b.feeds[channel]
	if !ok {
		return nil
	}
	return b.closeFeed(channel, f)
}

// Close ends every feed. The shared Redis client stays open.
func (b *RedisEventBus) Close() error {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()
	var errs []error
	for channel, f := range b.feeds {
		if err := b.closeFeed(channel, f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
