package processor

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderflow/pkg/circuitbreaker"
)

func TestClient_Notify(t *testing.T) {
	var gotBody []byte
	var gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	require.NoError(t, c.Notify(context.Background(), []byte(`{"orderId":1}`)))
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, `{"orderId":1}`, string(gotBody))
}

func TestClient_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, time.Second).Notify(context.Background(), []byte(`{}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "502")
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewClient(url, time.Second).Notify(context.Background(), []byte(`{}`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnexpectedStatus)
}

func TestClient_BreakerFailsFast(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := circuitbreaker.DefaultConfig("processor-client-test")
	cfg.Timeout = time.Minute
	c := NewClient(srv.URL, time.Second, WithBreaker(circuitbreaker.NewWrapper(cfg)))

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, c.Notify(context.Background(), []byte(`{}`)), ErrUnexpectedStatus)
	}
	assert.ErrorIs(t, c.Notify(context.Background(), []byte(`{}`)), gobreaker.ErrOpenState)
	assert.Equal(t, int32(3), hits.Load())
}
