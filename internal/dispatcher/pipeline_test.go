package dispatcher_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderflow/internal/checkout"
	"orderflow/internal/dispatcher"
	"orderflow/internal/events"
	"orderflow/internal/logger"
	"orderflow/internal/notify"
	"orderflow/internal/order"
	"orderflow/internal/reserver"
	"orderflow/internal/sink"
	"orderflow/internal/webhook"
	"orderflow/pkg/models"
)

// memoryQueue hands published records straight to a subscribed handler.
type memoryQueue struct {
	mu      sync.Mutex
	handler func(ctx context.Context, msg models.Message) error
}

func (q *memoryQueue) Publish(ctx context.Context, topic string, key, body []byte) error {
	q.mu.Lock()
	h := q.handler
	q.mu.Unlock()
	if h == nil {
		return nil
	}
	return h(ctx, models.Message{Topic: topic, Key: key, Body: body, Timestamp: time.Now()})
}

func (q *memoryQueue) Close() error { return nil }

type recordingNotifier struct {
	mu     sync.Mutex
	emails []notify.Email
}

func (n *recordingNotifier) Send(ctx context.Context, email notify.Email) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.emails = append(n.emails, email)
	return nil
}

type recordingProcessor struct {
	bodies [][]byte
}

func (p *recordingProcessor) Notify(ctx context.Context, body []byte) error {
	p.bodies = append(p.bodies, body)
	return nil
}

type statusSink struct {
	mu     sync.Mutex
	status int
	bodies [][]byte
}

func (s *statusSink) Upload(ctx context.Context, name string, body []byte, overwrite bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies = append(s.bodies, body)
	return s.status, nil
}

func (s *statusSink) Kind() string { return "memory" }

func checkoutRequest() checkout.Request {
	return checkout.Request{
		BuyerID:       "buyer-7",
		ShipToAddress: &order.Address{Street: "2 Side St", City: "Shelbyville", Country: "US", ZipCode: "54321"},
		Items: []checkout.ItemRequest{
			{CatalogItemID: 3, ProductName: "Mug", UnitPrice: 8.5, Units: 2},
		},
	}
}

type pipeline struct {
	notifier  *recordingNotifier
	processor *recordingProcessor
	sink      *statusSink
	checkout  *checkout.Service
}

func newPipeline(t *testing.T, sinkStatus int, fallback reserver.Fallback) *pipeline {
	t.Helper()
	log := logger.NopLogger()

	p := &pipeline{
		notifier:  &recordingNotifier{},
		processor: &recordingProcessor{},
		sink:      &statusSink{status: sinkStatus},
	}

	worker := reserver.NewWorker(reserver.Config{MaxAttempts: 3}, p.sink, fallback, reserver.NewTimestampNamer(false), log)
	queue := &memoryQueue{handler: worker.Handle}

	d := dispatcher.New(dispatcher.Config{Recipient: "ops@example.com", Topic: "order-item-reserve"},
		p.notifier, p.processor, queue, log)

	bus := events.NewBus(log)
	bus.Subscribe(d.Subscriber())
	p.checkout = checkout.NewService(&checkout.MemorySequence{}, bus, log)
	return p
}

func TestPipeline_CheckoutReachesEveryChannelAndSink(t *testing.T) {
	p := newPipeline(t, sink.StatusCreated, nil)

	o, err := p.checkout.PlaceOrder(context.Background(), checkoutRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, o.ID)

	require.Len(t, p.notifier.emails, 1)
	assert.Equal(t, "ops@example.com", p.notifier.emails[0].To)

	require.Len(t, p.processor.bodies, 1)
	require.Len(t, p.sink.bodies, 1)
	assert.Equal(t, p.processor.bodies[0], p.sink.bodies[0])

	var rec models.OrderRecord
	require.NoError(t, json.Unmarshal(p.sink.bodies[0], &rec))
	assert.Equal(t, 1, rec.OrderID)
	assert.Equal(t, 17.0, rec.FinalPrice)
	require.Len(t, rec.QuantityOfItems, 1)
	assert.Equal(t, "3", rec.QuantityOfItems[0].ItemID)
}

func TestPipeline_FailingSinkFallsBackWithSameBytes(t *testing.T) {
	var (
		mu       sync.Mutex
		received [][]byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		received = append(received, body)
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	p := newPipeline(t, http.StatusServiceUnavailable, webhook.NewClient(srv.URL, time.Second))

	_, err := p.checkout.PlaceOrder(context.Background(), checkoutRequest())
	require.NoError(t, err)

	assert.Len(t, p.sink.bodies, 3)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, p.processor.bodies[0], received[0])
}
