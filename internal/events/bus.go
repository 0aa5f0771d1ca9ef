package events

import (
	"context"
	"strconv"
	"sync"
	"time"

	"orderflow/internal/logger"
	"orderflow/internal/order"
	"orderflow/pkg/errors"
	"orderflow/pkg/logging"
)

// OrderCreated is raised in-process once an order has been placed.
type OrderCreated struct {
	Order      order.Order
	OccurredAt time.Time
}

type OrderCreatedHandler interface {
	HandleOrderCreated(ctx context.Context, event OrderCreated)
}

type OrderCreatedHandlerFunc func(ctx context.Context, event OrderCreated)

func (f OrderCreatedHandlerFunc) HandleOrderCreated(ctx context.Context, event OrderCreated) {
	f(ctx, event)
}

// Bus delivers domain events to every subscriber, one after another, in
// subscription order. A panicking subscriber is logged and skipped.
type Bus struct {
	mu       sync.RWMutex
	handlers []OrderCreatedHandler
	logger   logger.Logger
}

func NewBus(log logger.Logger) *Bus {
	return &Bus{logger: log}
}

func (b *Bus) Subscribe(h OrderCreatedHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

func (b *Bus) PublishOrderCreated(ctx context.Context, event OrderCreated) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	b.mu.RLock()
	handlers := make([]OrderCreatedHandler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	ctx = logging.WithOrderID(ctx, strconv.Itoa(event.Order.ID))
	for _, h := range handlers {
		err := errors.Guard(func() error {
			h.HandleOrderCreated(ctx, event)
			return nil
		})
		if err != nil {
			b.logger.ErrorwCtx(ctx, "Order created handler panicked", "error", err)
		}
	}
}
