package reserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"orderflow/internal/logger"
	"orderflow/internal/sink"
	"orderflow/internal/webhook"
	"orderflow/pkg/models"
)

type uploadResult struct {
	status int
	err    error
	panic  bool
}

type fakeSink struct {
	mu      sync.Mutex
	results []uploadResult
	names   []string
	bodies  [][]byte
}

func (f *fakeSink) Upload(ctx context.Context, name string, body []byte, overwrite bool) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = append(f.names, name)
	f.bodies = append(f.bodies, body)

	r := uploadResult{status: sink.StatusCreated}
	if i := len(f.names) - 1; i < len(f.results) {
		r = f.results[i]
	}
	if r.panic {
		panic("sink driver crashed")
	}
	return r.status, r.err
}

func (f *fakeSink) Kind() string { return "fake" }

func (f *fakeSink) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.names)
}

type fakeFallback struct {
	bodies [][]byte
	err    error
}

func (f *fakeFallback) Post(ctx context.Context, body []byte) (int, error) {
	f.bodies = append(f.bodies, body)
	if f.err != nil {
		return 0, f.err
	}
	return http.StatusAccepted, nil
}

func fixedNamer() Namer {
	return &TimestampNamer{Now: fixedClock(time.Date(2024, 3, 5, 14, 7, 9, 123_000_000, time.UTC))}
}

func newWorker(s Uploader, fb Fallback, log logger.Logger) *Worker {
	return NewWorker(Config{MaxAttempts: 3}, s, fb, fixedNamer(), log)
}

var record = []byte(`{"orderId":42,"finalPrice":19.5}`)

func TestProcess_SucceedsFirstAttempt(t *testing.T) {
	s := &fakeSink{}
	fb := &fakeFallback{}

	out := newWorker(s, fb, logger.NopLogger()).Process(context.Background(), record)

	assert.Equal(t, StatePersisted, out.State)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, "order-20240305140709123.json", out.Name)
	assert.NoError(t, out.Err())
	assert.Equal(t, 1, s.calls())
	assert.Empty(t, fb.bodies)
}

func TestProcess_SucceedsOnThirdAttempt(t *testing.T) {
	s := &fakeSink{results: []uploadResult{
		{status: http.StatusInternalServerError},
		{status: http.StatusServiceUnavailable},
		{status: sink.StatusCreated},
	}}
	fb := &fakeFallback{}

	out := newWorker(s, fb, logger.NopLogger()).Process(context.Background(), record)

	assert.Equal(t, StatePersisted, out.State)
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, 3, s.calls())
	assert.Empty(t, fb.bodies)
	for i, b := range s.bodies {
		assert.Equal(t, record, b, "attempt %d body", i+1)
		assert.Equal(t, out.Name, s.names[i])
	}
}

func TestProcess_ExhaustedGoesToFallbackOnce(t *testing.T) {
	s := &fakeSink{results: []uploadResult{
		{status: http.StatusInternalServerError},
		{status: http.StatusInternalServerError},
		{status: http.StatusInternalServerError},
	}}
	fb := &fakeFallback{}

	out := newWorker(s, fb, logger.NopLogger()).Process(context.Background(), record)

	assert.Equal(t, StateFallbackSent, out.State)
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, 3, s.calls())
	require.Len(t, fb.bodies, 1)
	assert.Equal(t, record, fb.bodies[0])
	assert.ErrorIs(t, out.UploadErr, ErrUploadExhausted)
	assert.ErrorIs(t, out.UploadErr, ErrUnexpectedStatus)
	assert.NoError(t, out.FallbackErr)
}

func TestProcess_TransportErrorsAreRetriedLikeStatusFailures(t *testing.T) {
	s := &fakeSink{results: []uploadResult{
		{err: errors.New("connection reset")},
		{status: http.StatusConflict, err: sink.ErrObjectExists},
		{err: errors.New("i/o timeout")},
	}}
	fb := &fakeFallback{}

	out := newWorker(s, fb, logger.NopLogger()).Process(context.Background(), record)

	assert.Equal(t, 3, s.calls())
	assert.Equal(t, StateFallbackSent, out.State)
	require.Len(t, fb.bodies, 1)
	assert.Equal(t, record, fb.bodies[0])
}

func TestProcess_CreatedStatusIsTheOnlySuccess(t *testing.T) {
	s := &fakeSink{results: []uploadResult{
		{status: http.StatusOK},
		{status: http.StatusAccepted},
		{status: http.StatusOK},
	}}
	fb := &fakeFallback{}

	out := newWorker(s, fb, logger.NopLogger()).Process(context.Background(), record)

	assert.Equal(t, StateFallbackSent, out.State)
	assert.Equal(t, http.StatusOK, out.LastStatus)
	assert.Len(t, fb.bodies, 1)
}

func TestProcess_EmptyBodyIsStillUploaded(t *testing.T) {
	s := &fakeSink{}

	out := newWorker(s, &fakeFallback{}, logger.NopLogger()).Process(context.Background(), []byte{})

	assert.Equal(t, StatePersisted, out.State)
	require.Len(t, s.bodies, 1)
	assert.Empty(t, s.bodies[0])
}

func TestProcess_PanicGoesStraightToFallback(t *testing.T) {
	s := &fakeSink{results: []uploadResult{{panic: true}}}
	fb := &fakeFallback{}
	core, logs := observer.New(zapcore.ErrorLevel)

	out := newWorker(s, fb, logger.NewWithCore(core)).Process(context.Background(), record)

	assert.Equal(t, 1, s.calls(), "a panic is not retried")
	assert.Equal(t, StateFallbackSent, out.State)
	require.Len(t, fb.bodies, 1)
	assert.Equal(t, record, fb.bodies[0])
	assert.Contains(t, out.UploadErr.Error(), "sink driver crashed")
	assert.Equal(t, 1, logs.FilterMessage("Unexpected failure while persisting, sending to fallback").Len())
}

func TestProcess_FallbackFailureIsTerminal(t *testing.T) {
	s := &fakeSink{results: []uploadResult{
		{status: 500}, {status: 500}, {status: 500},
	}}
	fb := &fakeFallback{err: errors.New("logic app unreachable")}
	core, logs := observer.New(zapcore.ErrorLevel)

	out := newWorker(s, fb, logger.NewWithCore(core)).Process(context.Background(), record)

	assert.Equal(t, StateFallbackFailed, out.State)
	assert.Len(t, fb.bodies, 1)
	assert.EqualError(t, out.FallbackErr, "logic app unreachable")
	assert.Equal(t, 1, logs.FilterMessage("Fallback delivery failed, order record dropped").Len())
}

func TestProcess_UnconfiguredFallbackIsLoggedDistinctly(t *testing.T) {
	s := &fakeSink{results: []uploadResult{
		{status: 500}, {status: 500}, {status: 500},
	}}
	core, logs := observer.New(zapcore.ErrorLevel)

	out := newWorker(s, webhook.NewClient("", 0), logger.NewWithCore(core)).Process(context.Background(), record)

	assert.Equal(t, StateFallbackFailed, out.State)
	assert.ErrorIs(t, out.FallbackErr, webhook.ErrNotConfigured)
	assert.Equal(t, 1, logs.FilterMessage("Fallback webhook not configured, order record dropped").Len())
	assert.Equal(t, 0, logs.FilterMessage("Fallback delivery failed, order record dropped").Len())
}

func TestProcess_NilFallback(t *testing.T) {
	s := &fakeSink{results: []uploadResult{{status: 500}, {status: 500}, {status: 500}}}

	out := newWorker(s, nil, logger.NopLogger()).Process(context.Background(), record)

	assert.Equal(t, StateFallbackFailed, out.State)
	assert.ErrorIs(t, out.FallbackErr, webhook.ErrNotConfigured)
}

func TestProcess_CanceledBetweenAttemptsStillFallsBack(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &cancelingSink{cancel: cancel}
	fb := &fakeFallback{}

	out := newWorker(s, fb, logger.NopLogger()).Process(ctx, record)

	assert.Equal(t, 1, s.calls, "no further attempts after cancellation")
	assert.Equal(t, StateFallbackSent, out.State)
	assert.Len(t, fb.bodies, 1)

	require.Error(t, out.UploadErr)
	assert.ErrorIs(t, out.UploadErr, context.Canceled)
	assert.ErrorIs(t, out.UploadErr, ErrUnexpectedStatus, "last sink failure is kept")
	assert.Contains(t, out.UploadErr.Error(), "503")
}

type cancelingSink struct {
	cancel context.CancelFunc
	calls  int
}

func (c *cancelingSink) Upload(ctx context.Context, name string, body []byte, overwrite bool) (int, error) {
	c.calls++
	c.cancel()
	return http.StatusServiceUnavailable, nil
}

func (c *cancelingSink) Kind() string { return "fake" }

func TestProcess_FallbackOverHTTP(t *testing.T) {
	var got []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := &fakeSink{results: []uploadResult{{status: 500}, {status: 500}, {status: 500}}}
	out := newWorker(s, webhook.NewClient(srv.URL, time.Second), logger.NopLogger()).Process(context.Background(), record)

	assert.Equal(t, StateFallbackSent, out.State)
	assert.Equal(t, record, got)
}

func TestHandle_AlwaysAcknowledges(t *testing.T) {
	s := &fakeSink{results: []uploadResult{{status: 500}, {status: 500}, {status: 500}}}
	fb := &fakeFallback{err: errors.New("down")}

	err := newWorker(s, fb, logger.NopLogger()).Handle(context.Background(), models.Message{Body: record})
	assert.NoError(t, err)
}

func TestProcess_RetryIntervalIsHonoured(t *testing.T) {
	s := &fakeSink{results: []uploadResult{{status: 500}, {status: sink.StatusCreated}}}
	w := NewWorker(Config{MaxAttempts: 3, RetryInterval: 20 * time.Millisecond}, s, &fakeFallback{}, fixedNamer(), logger.NopLogger())

	start := time.Now()
	out := w.Process(context.Background(), record)

	assert.Equal(t, StatePersisted, out.State)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}
