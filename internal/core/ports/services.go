package ports

import (
	"context"
	"time"

	"github.com/samirrijal/markermove/internal/core/domain"
)

// FramePublisher receives animation frames as they are produced.
type FramePublisher interface {
	PublishFrame(ctx context.Context, frame *domain.Frame) error
}

// EventPublisher publishes marker events to a message broker.
type EventPublisher interface {
	FramePublisher
	PublishFix(ctx context.Context, fix *domain.Fix) error
}

// EventSubscriber subscribes to marker events from a message broker.
type EventSubscriber interface {
	SubscribeFixes(ctx context.Context, handler func(ctx context.Context, fix *domain.Fix) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// Clock supplies the time that drives every transition.
type Clock interface {
	Now() time.Time
}
