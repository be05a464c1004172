package messaging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/serroba/qikurl/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	messages   []*message.Message
	topic      string
	publishErr error
	closeErr   error
	closed     int
}

func (m *mockPublisher) Publish(topic string, msgs ...*message.Message) error {
	if m.publishErr != nil {
		return m.publishErr
	}

	m.topic = topic
	m.messages = append(m.messages, msgs...)

	return nil
}

func (m *mockPublisher) Close() error {
	m.closed++

	return m.closeErr
}

type publishTestEvent struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

type requestIDKey struct{}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)

	return id
}

func TestNewPublishFunc(t *testing.T) {
	t.Run("publishes json payload on the topic", func(t *testing.T) {
		mock := &mockPublisher{}
		publish := messaging.NewPublishFunc[publishTestEvent](mock, "shorturl.test")

		err := publish(context.Background(), &publishTestEvent{Code: "abcdefghijkl", Reason: "expired"})

		require.NoError(t, err)
		assert.Equal(t, "shorturl.test", mock.topic)
		require.Len(t, mock.messages, 1)
		assert.JSONEq(t, `{"code":"abcdefghijkl","reason":"expired"}`, string(mock.messages[0].Payload))
		assert.NotEmpty(t, mock.messages[0].UUID)
		assert.NotEmpty(t, middleware.MessageCorrelationID(mock.messages[0]))
	})

	t.Run("uses the correlation id from context", func(t *testing.T) {
		mock := &mockPublisher{}
		publish := messaging.NewPublishFunc[publishTestEvent](
			mock, "shorturl.test", messaging.WithCorrelationID(requestID),
		)
		ctx := context.WithValue(context.Background(), requestIDKey{}, "req-42")

		require.NoError(t, publish(ctx, &publishTestEvent{Code: "abcdefghijkl"}))

		assert.Equal(t, "req-42", middleware.MessageCorrelationID(mock.messages[0]))
	})

	t.Run("falls back to a fresh correlation id", func(t *testing.T) {
		mock := &mockPublisher{}
		publish := messaging.NewPublishFunc[publishTestEvent](
			mock, "shorturl.test", messaging.WithCorrelationID(requestID),
		)

		require.NoError(t, publish(context.Background(), &publishTestEvent{Code: "abcdefghijkl"}))

		assert.NotEmpty(t, middleware.MessageCorrelationID(mock.messages[0]))
	})

	t.Run("wraps publish errors with the topic", func(t *testing.T) {
		publishErr := errors.New("publish error")
		mock := &mockPublisher{publishErr: publishErr}
		publish := messaging.NewPublishFunc[publishTestEvent](mock, "shorturl.test")

		err := publish(context.Background(), &publishTestEvent{Code: "abcdefghijkl"})

		require.ErrorIs(t, err, publishErr)
		assert.Contains(t, err.Error(), "shorturl.test")
	})
}

func TestPublisherGroup(t *testing.T) {
	t.Run("returns underlying publisher", func(t *testing.T) {
		mock := &mockPublisher{}
		group := messaging.NewPublisherGroup(mock)

		assert.Equal(t, mock, group.Publisher())
	})

	t.Run("closes the publisher once", func(t *testing.T) {
		mock := &mockPublisher{closeErr: errors.New("close error")}
		group := messaging.NewPublisherGroup(mock)

		first := group.Shutdown()
		second := group.Shutdown()

		require.Error(t, first)
		assert.Equal(t, first, second)
		assert.Equal(t, 1, mock.closed)
	})

	t.Run("shuts down successfully", func(t *testing.T) {
		group := messaging.NewPublisherGroup(&mockPublisher{})

		assert.NoError(t, group.Shutdown())
	})
}
