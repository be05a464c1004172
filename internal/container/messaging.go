package container

import (
	"context"
	"fmt"

	"github.com/samber/do"
	"github.com/serroba/qikurl/internal/eviction"
	"github.com/serroba/qikurl/internal/messaging"
	"github.com/serroba/qikurl/internal/middleware"
	"github.com/serroba/qikurl/internal/shortener"
	"go.uber.org/zap"
)

func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*RedisClient](i)
		logger := do.MustInvoke[*zap.Logger](i)

		publisher, err := messaging.NewRedisStreamPublisher(client.Client, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(injector, func(i *do.Injector) (*eviction.Publisher, error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return eviction.NewPublisher(
			messaging.NewPublishFunc[eviction.EvictionRequested](
				group.Publisher(),
				eviction.TopicEvictions,
				messaging.WithCorrelationID(requestID),
			),
		), nil
	})
}

func requestID(ctx context.Context) string {
	return middleware.MetaFromContext(ctx).RequestID
}

// ConsumerGroupPackage provides the eviction workers. They share the cache
// configured for the server.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		opts := do.MustInvoke[*Options](i)
		client := do.MustInvoke[*RedisClient](i)
		logger := do.MustInvoke[*zap.Logger](i)
		cache := do.MustInvoke[shortener.Cache](i)

		subscriber, err := messaging.NewRedisStreamSubscriber(client.Client, EvictorConsumerGroup, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create subscriber: %w", err)
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(
			subscriber,
			eviction.TopicEvictions,
			eviction.NewHandler(cache, logger),
			logger,
			messaging.WithHandlerTimeout(opts.OpTimeout()),
		))

		return group, nil
	})
}
