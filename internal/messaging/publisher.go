package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// Publish sends one typed event.
type Publish[T any] func(ctx context.Context, event *T) error

// PublishOption configures a typed publish function.
type PublishOption func(*publishConfig)

type publishConfig struct {
	correlationID func(ctx context.Context) string
}

// WithCorrelationID tags every message with the id fn extracts from the publishing
// context, typically the request id. Messages get a fresh id when fn returns "".
func WithCorrelationID(fn func(ctx context.Context) string) PublishOption {
	return func(c *publishConfig) {
		c.correlationID = fn
	}
}

// NewPublishFunc creates a publish function for events of type T on topic.
// Events are JSON encoded.
func NewPublishFunc[T any](publisher message.Publisher, topic string, opts ...PublishOption) Publish[T] {
	var cfg publishConfig

	for _, opt := range opts {
		opt(&cfg)
	}

	return func(ctx context.Context, event *T) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal %s event: %w", topic, err)
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.SetContext(ctx)
		middleware.SetCorrelationID(correlationID(ctx, cfg), msg)

		if err = publisher.Publish(topic, msg); err != nil {
			return fmt.Errorf("publish to %s: %w", topic, err)
		}

		return nil
	}
}

func correlationID(ctx context.Context, cfg publishConfig) string {
	if cfg.correlationID != nil {
		if id := cfg.correlationID(ctx); id != "" {
			return id
		}
	}

	return watermill.NewUUID()
}

// PublisherGroup owns the publisher shared by every typed publish function.
type PublisherGroup struct {
	publisher message.Publisher
	closeOnce sync.Once
	closeErr  error
}

func NewPublisherGroup(publisher message.Publisher) *PublisherGroup {
	return &PublisherGroup{publisher: publisher}
}

func (g *PublisherGroup) Publisher() message.Publisher {
	return g.publisher
}

// Shutdown closes the publisher once. Later calls return the first result.
func (g *PublisherGroup) Shutdown() error {
	g.closeOnce.Do(func() {
		g.closeErr = g.publisher.Close()
	})

	return g.closeErr
}
