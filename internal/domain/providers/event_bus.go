package providers

import (
	"context"

	"github.com/zatekoja/medlab/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to store
// change events across server instances
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.ChangeEvent) error

	// Subscribe subscribes to events on a channel until ctx is cancelled
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ChangeEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelStoreChanges carries every committed write to the store
const EventChannelStoreChanges = "medlab:changes"
