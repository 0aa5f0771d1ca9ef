package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckerRegistry(t *testing.T) {
	r := NewCheckerRegistry()
	r.Register(NewFuncChecker("sink", func(ctx context.Context) error { return nil }))

	h := r.Check(context.Background())
	assert.Equal(t, StatusHealthy, h.Status)
	assert.Equal(t, StatusHealthy, h.Checks["sink"].Status)

	r.Register(NewFuncChecker("broker", func(ctx context.Context) error { return errors.New("dial tcp: refused") }))
	h = r.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, h.Status)
	assert.Equal(t, "dial tcp: refused", h.Checks["broker"].Message)
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := NewCheckerRegistry()
	reg.Register(NewFuncChecker("broker", func(ctx context.Context) error { return errors.New("down") }))

	router := gin.New()
	router.GET("/health", reg.Handler())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, StatusUnhealthy, body.Status)
}

func TestCheckerRegistry_OptionalFailureDegrades(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := NewCheckerRegistry()
	reg.Register(NewFuncChecker("redis", func(ctx context.Context) error { return nil }))
	reg.RegisterOptional(NewFuncChecker("broker", func(ctx context.Context) error { return errors.New("no leader") }))

	h := reg.Check(context.Background())
	assert.Equal(t, StatusDegraded, h.Status)
	assert.Equal(t, StatusDegraded, h.Checks["broker"].Status)
	assert.False(t, h.Checks["broker"].Critical)
	assert.True(t, h.Checks["redis"].Critical)

	router := gin.New()
	router.GET("/health", reg.Handler())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCheckerRegistry_CriticalFailureWinsOverDegraded(t *testing.T) {
	reg := NewCheckerRegistry()
	reg.RegisterOptional(NewFuncChecker("broker", func(ctx context.Context) error { return errors.New("down") }))
	reg.Register(NewFuncChecker("sink_container", func(ctx context.Context) error { return errors.New("missing") }))

	assert.Equal(t, StatusUnhealthy, reg.Check(context.Background()).Status)
}

func TestCheckerRegistry_ProbeTimeout(t *testing.T) {
	reg := NewCheckerRegistry().WithTimeout(20 * time.Millisecond)
	reg.Register(NewFuncChecker("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	start := time.Now()
	h := reg.Check(context.Background())
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, StatusUnhealthy, h.Status)
	assert.Contains(t, h.Checks["slow"].Message, "deadline exceeded")
}
