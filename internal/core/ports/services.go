package ports

import (
	"context"

	"github.com/samirrijal/mapbuffer/internal/core/domain"
)

// EventPublisher publishes layer events to a message broker.
type EventPublisher interface {
	PublishLayerEvent(ctx context.Context, event *domain.LayerEvent) error
}

// EventSubscriber subscribes to layer events from a message broker.
type EventSubscriber interface {
	SubscribeLayerEvents(ctx context.Context, handler func(ctx context.Context, event *domain.LayerEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// LayerRenderer draws the features of a layer into an encoded image.
type LayerRenderer interface {
	RenderPNG(layer domain.Layer, features []domain.Feature, width, height int) ([]byte, error)
}
