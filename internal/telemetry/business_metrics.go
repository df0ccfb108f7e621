// Package telemetry holds Prometheus business metrics: order, payment,
// webhook and notification counters the operations dashboard is built on.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for business-level observability.
type BusinessMetrics struct {
	// Orders
	OrdersCreated   prometheus.Counter
	OrdersCancelled *prometheus.CounterVec
	OrderValue      prometheus.Histogram
	OrderItemCount  prometheus.Histogram
	StatusChanges   *prometheus.CounterVec

	// Payments
	PaymentsInitiated prometheus.Counter
	PaymentsSucceeded prometheus.Counter
	PaymentsFailed    prometheus.Counter

	// Gateway webhooks
	WebhooksReceived  prometheus.Counter
	WebhooksRejected  prometheus.Counter
	WebhooksDuplicate prometheus.Counter
	WebhookLatency    prometheus.Histogram

	// Notifications
	NotificationsSent   *prometheus.CounterVec
	NotificationsFailed *prometheus.CounterVec
}

// NewBusinessMetrics creates and registers all business metrics.
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "elmali"
	}

	subsystem := "business"

	return &BusinessMetrics{
		OrdersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "orders_created_total",
			Help:      "Total orders created",
		}),
		OrdersCancelled: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "orders_cancelled_total",
			Help:      "Total orders cancelled",
		}, []string{"initiator"}), // initiator: customer, admin, payment_failure
		OrderValue: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "order_value_kurus",
			Help:      "Order value distribution in kurus",
			Buckets:   []float64{1000, 2500, 5000, 10000, 25000, 50000, 100000, 250000, 500000},
		}),
		OrderItemCount: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "order_item_count",
			Help:      "Number of line items per order",
			Buckets:   []float64{1, 2, 3, 5, 10, 15, 20},
		}),
		StatusChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "order_status_changes_total",
			Help:      "Total order status transitions",
		}, []string{"status"}),

		PaymentsInitiated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "payments_initiated_total",
			Help:      "Total hosted payment sessions opened",
		}),
		PaymentsSucceeded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "payments_succeeded_total",
			Help:      "Total payments confirmed by the gateway",
		}),
		PaymentsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "payments_failed_total",
			Help:      "Total payments reported failed by the gateway",
		}),

		WebhooksReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "webhooks_received_total",
			Help:      "Total gateway callbacks received",
		}),
		WebhooksRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "webhooks_rejected_total",
			Help:      "Total callbacks rejected before any mutation (bad hash, missing fields)",
		}),
		WebhooksDuplicate: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "webhooks_duplicate_total",
			Help:      "Total duplicate callback deliveries ignored",
		}),
		WebhookLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "webhook_processing_seconds",
			Help:      "Callback processing duration",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),

		NotificationsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notifications_sent_total",
			Help:      "Total notifications delivered by channel",
		}, []string{"channel"}), // channel: email, sms
		NotificationsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notifications_failed_total",
			Help:      "Total notification delivery failures by channel",
		}, []string{"channel"}),
	}
}

// WebhookRejected counts a callback rejected during verification.
func (m *BusinessMetrics) WebhookRejected() {
	if m == nil {
		return
	}
	m.WebhooksRejected.Inc()
}

// PaymentProcessed counts a reconciled gateway outcome.
func (m *BusinessMetrics) PaymentProcessed(paid bool) {
	if m == nil {
		return
	}
	if paid {
		m.PaymentsSucceeded.Inc()
	} else {
		m.PaymentsFailed.Inc()
	}
}

// OrderCreated records a new order.
func (m *BusinessMetrics) OrderCreated(totalKurus int64, itemCount int) {
	if m == nil {
		return
	}
	m.OrdersCreated.Inc()
	m.OrderValue.Observe(float64(totalKurus))
	m.OrderItemCount.Observe(float64(itemCount))
}

// StatusChanged records a fulfillment status transition.
func (m *BusinessMetrics) StatusChanged(status string) {
	if m == nil {
		return
	}
	m.StatusChanges.WithLabelValues(status).Inc()
}

// OrderCancelled records a cancellation by initiator.
func (m *BusinessMetrics) OrderCancelled(initiator string) {
	if m == nil {
		return
	}
	m.OrdersCancelled.WithLabelValues(initiator).Inc()
}

// WebhookDuplicate counts a redelivered callback that was acknowledged
// without mutation.
func (m *BusinessMetrics) WebhookDuplicate() {
	if m == nil {
		return
	}
	m.WebhooksDuplicate.Inc()
}

// NotificationSent records a delivered notification by channel.
func (m *BusinessMetrics) NotificationSent(channel string) {
	if m == nil {
		return
	}
	m.NotificationsSent.WithLabelValues(channel).Inc()
}

// NotificationFailed records a failed notification by channel.
func (m *BusinessMetrics) NotificationFailed(channel string) {
	if m == nil {
		return
	}
	m.NotificationsFailed.WithLabelValues(channel).Inc()
}
