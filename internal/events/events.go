// Package events carries order lifecycle events from the transactional core
// to the notification worker. Publishing happens after the primary
// transaction commits; a lost event can cost a notification but never a
// state change.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/elmalimarket/elmali/internal/domain"
)

// Type identifies an order lifecycle event.
type Type string

const (
	TypeOrderCreated       Type = "order.created"
	TypeOrderStatusChanged Type = "order.status_changed"
	TypeOrderCancelled     Type = "order.cancelled"
	TypePaymentReceived    Type = "payment.received"
	TypePaymentFailed      Type = "payment.failed"
)

// OrderEvent is the JSON payload published per lifecycle transition. It is
// self-contained so the notification worker never reads the database.
type OrderEvent struct {
	Type          Type                 `json:"type"`
	OrderID       uuid.UUID            `json:"order_id"`
	OrderNumber   string               `json:"order_number"`
	Status        domain.OrderStatus   `json:"status"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	TotalKurus    int64                `json:"total_kurus"`

	// Recipient snapshot.
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	FirstName string `json:"first_name"`

	Items []OrderEventItem `json:"items,omitempty"`

	TrackingNumber    string    `json:"tracking_number,omitempty"`
	EstimatedDelivery string    `json:"estimated_delivery,omitempty"`
	Reason            string    `json:"reason,omitempty"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// OrderEventItem is one order line on an OrderEvent.
type OrderEventItem struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	TotalKurus  int64  `json:"total_kurus"`
}

// Handler processes one delivered event. Handlers own their error handling;
// the bus does not retry.
type Handler func(ctx context.Context, ev OrderEvent)

// Bus publishes and delivers order events.
type Bus interface {
	// Publish emits an event. Callers treat failures as best-effort: log
	// and continue, never fail the triggering operation.
	Publish(ctx context.Context, ev OrderEvent) error

	// Subscribe registers a handler for all order events and returns an
	// unsubscribe function.
	Subscribe(h Handler) (func(), error)

	Close()
}
