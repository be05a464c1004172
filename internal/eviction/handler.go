package eviction

import (
	"context"
	"fmt"
	"time"

	"github.com/serroba/qikurl/internal/messaging"
	"github.com/serroba/qikurl/internal/shortener"
	"go.uber.org/zap"
)

// NewHandler returns a handler deleting the requested code from cache.
// A cache error is returned so the message is redelivered.
func NewHandler(cache shortener.Cache, logger *zap.Logger) messaging.Handler[EvictionRequested] {
	return func(ctx context.Context, event *EvictionRequested) error {
		if event.Code == "" {
			logger.Warn("ignoring eviction without code", zap.String("reason", event.Reason))

			return nil
		}

		if err := cache.Delete(ctx, shortener.Code(event.Code)); err != nil {
			return fmt.Errorf("evict %s: %w", event.Code, err)
		}

		logger.Info("evicted cached short url",
			zap.String("code", event.Code),
			zap.String("reason", event.Reason),
			zap.Duration("lag", time.Since(event.RequestedAt)),
		)

		return nil
	}
}
