package ports

import (
	"context"

	"github.com/yuwankavi/Gas-Project/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishSellerCreated(ctx context.Context, event *domain.SellerEvent) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeSellerCreated(ctx context.Context, handler func(ctx context.Context, event *domain.SellerEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
}
