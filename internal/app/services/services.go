package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/appschool/internal/pkg/apperrors"
	"github.com/yigit/appschool/internal/pkg/events"
	"github.com/yigit/appschool/internal/pkg/websocket"
)

// FeedCache caches the projected student feed
type FeedCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// EventPublisher forwards notification events to the broker
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// FeedBroadcaster pushes feed changes to connected students
type FeedBroadcaster interface {
	Broadcast(message *websocket.Message)
}

// studentFeedKey is the cache key of the active notification feed
const studentFeedKey = "notifications:student-feed"

// storeError keeps domain errors as they are and hides anything else behind
// apperrors.ErrStoreFailure after logging it.
func storeError(logger zerolog.Logger, op string, err error) error {
	if apperrors.IsDomainError(err) {
		return err
	}
	logger.Error().Err(err).Str("operation", op).Msg("Store operation failed")
	return apperrors.NewStoreError(err)
}
