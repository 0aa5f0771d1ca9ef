package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"orderflow/internal/logger"
	"orderflow/internal/order"
)

func TestBus_DeliversToAllSubscribersInOrder(t *testing.T) {
	bus := NewBus(logger.NopLogger())

	var seen []string
	bus.Subscribe(OrderCreatedHandlerFunc(func(ctx context.Context, e OrderCreated) {
		seen = append(seen, "first")
		assert.False(t, e.OccurredAt.IsZero())
	}))
	bus.Subscribe(OrderCreatedHandlerFunc(func(ctx context.Context, e OrderCreated) {
		seen = append(seen, "second")
		assert.Equal(t, 5, e.Order.ID)
	}))

	bus.PublishOrderCreated(context.Background(), OrderCreated{Order: order.Order{ID: 5}})
	assert.Equal(t, []string{"first", "second"}, seen)
}

func TestBus_PanickingHandlerDoesNotStopOthers(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	bus := NewBus(logger.NewWithCore(core))

	called := false
	bus.Subscribe(OrderCreatedHandlerFunc(func(ctx context.Context, e OrderCreated) {
		panic("mail server exploded")
	}))
	bus.Subscribe(OrderCreatedHandlerFunc(func(ctx context.Context, e OrderCreated) {
		called = true
	}))

	require.NotPanics(t, func() {
		bus.PublishOrderCreated(context.Background(), OrderCreated{Order: order.Order{ID: 9}})
	})
	assert.True(t, called)
	require.Equal(t, 1, logs.FilterMessage("Order created handler panicked").Len())
	assert.Equal(t, "9", logs.All()[0].ContextMap()["order_id"])
}
