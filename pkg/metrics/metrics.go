// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DeliveryDuration tracks end-to-end delivery call duration.
	DeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_delivery_duration_seconds",
			Help:    "Message delivery duration in seconds, including retries",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30, 45, 60},
		},
		[]string{"status"},
	)

	// DeliveryAttemptsTotal tracks individual delivery attempts.
	DeliveryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_delivery_attempts_total",
			Help: "Total delivery attempts",
		},
		[]string{"outcome"},
	)

	// DeliveryRetriesTotal tracks backoff retries of transient failures.
	DeliveryRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_delivery_retries_total",
			Help: "Total delivery retries after transient failures",
		},
	)

	// TokenRefreshTotal tracks forced credential refreshes.
	TokenRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_token_refresh_total",
			Help: "Total forced token refreshes",
		},
		[]string{"result"},
	)

	// StoreOpsTotal tracks conversation store operations.
	StoreOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_store_ops_total",
			Help: "Total conversation store operations",
		},
		[]string{"op", "result"},
	)

	// StoreOpDuration tracks conversation store operation duration.
	StoreOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_store_op_duration_seconds",
			Help:    "Conversation store operation duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"op"},
	)

	// MessagesTotal tracks messages appended to local state.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Total messages created",
		},
		[]string{"type"},
	)

	// ConversationsTotal tracks conversations created.
	ConversationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_conversations_total",
			Help: "Total conversations created",
		},
	)
)

// RecordDelivery records metrics for one completed delivery call.
func RecordDelivery(status string, seconds float64) {
	DeliveryDuration.WithLabelValues(status).Observe(seconds)
}

// RecordStoreOp records metrics for one store operation.
func RecordStoreOp(op, result string, seconds float64) {
	StoreOpsTotal.WithLabelValues(op, result).Inc()
	StoreOpDuration.WithLabelValues(op).Observe(seconds)
}
