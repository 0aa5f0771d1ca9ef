package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"

	"orderflow/internal/config"
)

func TestWrapper_OpensAfterFailures(t *testing.T) {
	w := NewWrapper(FromSettings("processor-test", config.CircuitBreakerConfig{
		MinRequests:  2,
		FailureRatio: 0.5,
		Timeout:      time.Minute,
	}))

	boom := errors.New("boom")
	calls := 0
	fail := func() error { calls++; return boom }

	assert.ErrorIs(t, w.Do(context.Background(), fail), boom)
	assert.ErrorIs(t, w.Do(context.Background(), fail), boom)
	assert.True(t, w.IsOpen())

	err := w.Do(context.Background(), fail)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, calls)
}

func TestWrapper_CancelledContextSkipsCall(t *testing.T) {
	w := NewWrapper(DefaultConfig("cancelled-test"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := w.Do(ctx, func() error { called = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
