package broker

import (
	"context"

	"orderflow/pkg/models"
)

type Producer interface {
	Publish(ctx context.Context, topic string, key, body []byte) error
	Close() error
}

type Consumer interface {
	Consume(ctx context.Context, topic string, handler HandlerFunc) error
	Close() error
	SetServiceName(name string)
}

// HandlerFunc processes one delivery. A returned error is retried in
// process; the message is acknowledged once the handler succeeds or the
// retries run out.
type HandlerFunc func(ctx context.Context, msg models.Message) error
