package broker

import (
	"context"
	"time"

	"orderflow/internal/logger"
	"orderflow/pkg/errors"
	"orderflow/pkg/models"
	"orderflow/pkg/retry"
)

// runHandler invokes handler with panic recovery and the in-process retry
// policy shared by every broker implementation.
func runHandler(ctx context.Context, log logger.Logger, policy retry.Policy, handler HandlerFunc, msg models.Message) error {
	return retry.RetryWithCallback(ctx, policy, func() error {
		return errors.Guard(func() error {
			return handler(ctx, msg)
		})
	}, func(attempt int, err error, nextDelay time.Duration) {
		log.WarnwCtx(ctx, "Retrying message handler",
			"attempt", attempt,
			"max_attempts", policy.MaxAttempts,
			"next_delay", nextDelay,
			"error", err,
			"topic", msg.Topic,
		)
	})
}

func handlerPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2.0,
	}
}
