package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetLogFields(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetLogFields(ctx))

	ctx = WithTraceID(ctx, "trace-1")
	ctx = WithOrderID(ctx, "42")
	ctx = WithServiceName(ctx, "reserver-service")

	assert.Equal(t, []interface{}{
		"trace_id", "trace-1",
		"order_id", "42",
		"service_name", "reserver-service",
	}, GetLogFields(ctx))
	assert.Equal(t, "42", GetOrderID(ctx))
	assert.Equal(t, "", GetMessageID(ctx))
}
