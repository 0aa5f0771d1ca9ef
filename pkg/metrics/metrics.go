package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	DispatchStepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_steps_total",
			Help: "Order dispatch side effects by channel and outcome (count)",
		},
		[]string{"channel", "status"},
	)

	DispatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_duration_ms",
			Help:    "Time spent handling one order created event in milliseconds",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
	)

	SinkUploadAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sink_upload_attempts_total",
			Help: "Upload attempts against the durable sink (count)",
		},
		[]string{"sink", "status"},
	)

	SinkUploadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sink_upload_duration_ms",
			Help:    "Duration of a single sink upload attempt in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		},
		[]string{"sink"},
	)

	PersistOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persist_outcomes_total",
			Help: "Final state of each consumed order message (count)",
		},
		[]string{"state"},
	)

	FallbackDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fallback_deliveries_total",
			Help: "Messages forwarded to the fallback webhook (count)",
		},
		[]string{"status"},
	)

	BrokerMessagesPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_messages_published_total",
			Help: "Messages written to the broker (count)",
		},
		[]string{"broker", "topic", "status"},
	)

	BrokerMessagesConsumedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_messages_consumed_total",
			Help: "Messages read from the broker (count)",
		},
		[]string{"broker", "topic"},
	)

	BrokerMessageSizeBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "broker_message_size_bytes",
			Help:    "Size of broker messages in bytes",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000},
		},
		[]string{"broker", "direction"},
	)

	DeliveryRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_requests_total",
			Help: "Requests accepted by the delivery ingress endpoint (count)",
		},
		[]string{"status"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)
)

var (
	dispatchOnce sync.Once
	reserverOnce sync.Once
	brokerOnce   sync.Once
	cbOnce       sync.Once
	httpOnce     sync.Once
)

func RegisterDispatchMetrics() {
	dispatchOnce.Do(func() {
		prometheus.MustRegister(DispatchStepsTotal)
		prometheus.MustRegister(DispatchDuration)
	})
}

func RegisterReserverMetrics() {
	reserverOnce.Do(func() {
		prometheus.MustRegister(SinkUploadAttemptsTotal)
		prometheus.MustRegister(SinkUploadDuration)
		prometheus.MustRegister(PersistOutcomesTotal)
		prometheus.MustRegister(FallbackDeliveriesTotal)
	})
}

func RegisterBrokerMetrics() {
	brokerOnce.Do(func() {
		prometheus.MustRegister(BrokerMessagesPublishedTotal)
		prometheus.MustRegister(BrokerMessagesConsumedTotal)
		prometheus.MustRegister(BrokerMessageSizeBytes)
	})
}

func RegisterCircuitBreakerMetrics() {
	cbOnce.Do(func() {
		prometheus.MustRegister(CircuitBreakerState)
		prometheus.MustRegister(CircuitBreakerRequests)
		prometheus.MustRegister(CircuitBreakerFailures)
	})
}

func RegisterHTTPMetrics() {
	httpOnce.Do(func() {
		prometheus.MustRegister(DeliveryRequestsTotal)
		prometheus.MustRegister(RateLimitRequestsTotal)
	})
}

func IncDispatchStep(channel, status string) {
	DispatchStepsTotal.WithLabelValues(channel, status).Inc()
}

func ObserveDispatchDuration(duration time.Duration) {
	DispatchDuration.Observe(float64(duration.Milliseconds()))
}

func IncSinkUploadAttempt(sink, status string) {
	SinkUploadAttemptsTotal.WithLabelValues(sink, status).Inc()
}

func ObserveSinkUploadDuration(sink string, duration time.Duration) {
	SinkUploadDuration.WithLabelValues(sink).Observe(float64(duration.Milliseconds()))
}

func IncPersistOutcome(state string) {
	PersistOutcomesTotal.WithLabelValues(state).Inc()
}

func IncFallbackDelivery(status string) {
	FallbackDeliveriesTotal.WithLabelValues(status).Inc()
}

func IncBrokerPublished(broker, topic, status string) {
	BrokerMessagesPublishedTotal.WithLabelValues(broker, topic, status).Inc()
}

func IncBrokerConsumed(broker, topic string) {
	BrokerMessagesConsumedTotal.WithLabelValues(broker, topic).Inc()
}

func ObserveBrokerMessageSize(broker, direction string, sizeBytes int) {
	BrokerMessageSizeBytes.WithLabelValues(broker, direction).Observe(float64(sizeBytes))
}

func IncDeliveryRequest(status string) {
	DeliveryRequestsTotal.WithLabelValues(status).Inc()
}
