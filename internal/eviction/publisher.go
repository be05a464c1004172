package eviction

import (
	"context"
	"time"

	"github.com/serroba/qikurl/internal/messaging"
	"github.com/serroba/qikurl/internal/shortener"
)

// Publisher implements shortener.Evictor by emitting EvictionRequested events.
type Publisher struct {
	publish messaging.Publish[EvictionRequested]
	now     func() time.Time
}

// NewPublisher creates an evictor that publishes with publish.
func NewPublisher(publish messaging.Publish[EvictionRequested]) *Publisher {
	return &Publisher{
		publish: publish,
		now:     time.Now,
	}
}

func (p *Publisher) Evict(ctx context.Context, code shortener.Code, reason string) error {
	return p.publish(ctx, &EvictionRequested{
		Code:        string(code),
		Reason:      reason,
		RequestedAt: p.now().UTC(),
	})
}

// Compile-time check.
var _ shortener.Evictor = (*Publisher)(nil)
