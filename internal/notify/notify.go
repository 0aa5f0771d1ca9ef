package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"orderflow/internal/logger"
)

// Email is one outbound mail handed to the notification channel.
type Email struct {
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

type Notifier interface {
	Send(ctx context.Context, email Email) error
}

// RedisNotifier pushes mails onto a Redis list drained by the mailer.
type RedisNotifier struct {
	client redis.Cmdable
	queue  string
}

func NewRedisNotifier(client redis.Cmdable, queue string) *RedisNotifier {
	return &RedisNotifier{client: client, queue: queue}
}

func (n *RedisNotifier) Send(ctx context.Context, email Email) error {
	if email.CreatedAt.IsZero() {
		email.CreatedAt = time.Now().UTC()
	}

	body, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("failed to marshal email: %w", err)
	}

	if err := n.client.LPush(ctx, n.queue, body).Err(); err != nil {
		return fmt.Errorf("failed to enqueue email on %s: %w", n.queue, err)
	}
	return nil
}

// LogNotifier only records the mail in the service log.
type LogNotifier struct {
	logger logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

func (n *LogNotifier) Send(ctx context.Context, email Email) error {
	n.logger.InfowCtx(ctx, "Email notification",
		"to", email.To,
		"subject", email.Subject,
		"body", email.Body,
	)
	return nil
}
