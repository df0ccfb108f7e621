package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// PaymentStatus tracks the payment side of an order, independent from but
// correlated with OrderStatus. PAID and FAILED are terminal.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// ValidOrderStatus reports whether s is a member of the status enum.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the payment status can no longer change.
func (p PaymentStatus) Terminal() bool {
	return p == PaymentStatusPaid || p == PaymentStatusFailed
}

// Order-related domain errors.
var (
	ErrOrderNotFound     = &Error{Code: ENOTFOUND, Message: "Sipariş bulunamadı"}
	ErrOrderAlreadyPaid  = &Error{Code: EINVALID, Message: "Bu siparişin ödemesi zaten alınmış"}
	ErrInsufficientStock = &Error{Code: ECONFLICT, Message: "Yetersiz stok"}
	ErrProductInactive   = &Error{Code: ECONFLICT, Message: "Ürün satışta değil"}
)

// Order is the consistency boundary for a purchase: the order row, its line
// items, and both status fields. It is never hard-deleted; cancellation is a
// status transition.
type Order struct {
	ID                uuid.UUID
	OrderNumber       string
	UserID            uuid.UUID
	Items             []OrderItem
	TotalKurus        int64
	Status            OrderStatus
	PaymentStatus     PaymentStatus
	ShippingAddressID uuid.UUID
	TrackingNumber    string
	EstimatedDelivery *time.Time
	Notes             string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// OrderItem is an immutable line-item snapshot taken at order time.
// Unit price is decoupled from the live product price.
type OrderItem struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	ProductID      uuid.UUID
	ProductName    string
	Quantity       int32
	UnitPriceKurus int64
	TotalKurus     int64
}

// CanTransitionTo reports whether the fulfillment state machine permits
// moving from the current status to next.
//
//	PENDING → CONFIRMED → PREPARING → SHIPPED → DELIVERED
//
// CANCELLED is reachable from PENDING and CONFIRMED only; cancellation after
// preparation begins is not permitted. Same-status updates are allowed so an
// admin can attach tracking data without changing state.
func (o *Order) CanTransitionTo(next OrderStatus) bool {
	if o.Status == next {
		return true
	}

	switch o.Status {
	case OrderStatusPending:
		return next == OrderStatusConfirmed || next == OrderStatusCancelled
	case OrderStatusConfirmed:
		return next == OrderStatusPreparing || next == OrderStatusCancelled
	case OrderStatusPreparing:
		return next == OrderStatusShipped
	case OrderStatusShipped:
		return next == OrderStatusDelivered
	}
	return false
}

// Cancellable reports whether the order may be cancelled by a customer or
// admin. Beyond the state-machine guard, a paid order is never cancellable
// through this path: the payment webhook and a concurrent cancel serialize
// on the order row, so whichever commits first decides, and PAID + CANCELLED
// can never be produced.
func (o *Order) Cancellable() bool {
	if o.PaymentStatus == PaymentStatusPaid {
		return false
	}
	return o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed
}

// GuestOrder carries everything needed to create an order for an anonymous
// buyer in one transaction: placeholder user, shipping address, order and
// stock decrements.
type GuestOrder struct {
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	Address       Address
	Items         []GuestOrderItem
	PaymentMethod string
	Notes         string
}

// GuestOrderItem references a live product; price is resolved and snapshotted
// at transaction time.
type GuestOrderItem struct {
	ProductID uuid.UUID
	Quantity  int32
}

// CancelOrderParams identifies the order to cancel and who is asking.
type CancelOrderParams struct {
	OrderID uuid.UUID
	UserID  uuid.UUID
	IsAdmin bool
	Reason  string
}

// UpdateStatusParams carries an admin status update.
type UpdateStatusParams struct {
	OrderID           uuid.UUID
	Status            OrderStatus
	TrackingNumber    string
	EstimatedDelivery *time.Time
	Notes             string
}

// PaymentOutcome is a verified result delivered by the gateway callback.
type PaymentOutcome struct {
	OrderRef    string // merchant reference: order ID or order number
	Paid        bool
	AmountKurus int64
	FailCode    string
	FailMessage string
}

// OrderStore persists the Order aggregate. Implementations must execute each
// mutating call as a single atomic transaction; partial application of an
// order mutation and its stock adjustment is a correctness violation.
// The store is injected explicitly so tests can swap in an isolated fake.
type OrderStore interface {
	// CreateGuestOrder creates an inactive placeholder user, the shipping
	// address, the order with its item snapshots, and decrements stock for
	// every line, all in one transaction. Stock and product-active checks
	// are authoritative at commit time.
	CreateGuestOrder(ctx context.Context, g GuestOrder) (*Order, error)

	// GetOrder loads an order with items. When userID is non-nil the lookup
	// is scoped to that owner and misses return ErrOrderNotFound.
	GetOrder(ctx context.Context, orderID uuid.UUID, userID *uuid.UUID) (*Order, error)

	// GetOrderByRef resolves a gateway merchant reference, trying the order
	// ID first and falling back to the order number.
	GetOrderByRef(ctx context.Context, ref string) (*Order, error)

	// CancelOrder atomically sets CANCELLED, appends the reason to notes and
	// restores the exact decremented stock for every line item. The order
	// row is locked before the state-machine guard runs.
	CancelOrder(ctx context.Context, p CancelOrderParams) (*Order, error)

	// UpdateStatus persists an admin-driven status change. Returns the
	// updated order and whether the status actually changed.
	UpdateStatus(ctx context.Context, p UpdateStatusParams) (*Order, bool, error)

	// ApplyPaymentOutcome transitions the order for a verified gateway
	// callback. It locks the order row, and if the payment status is
	// already terminal it reports duplicate=true without mutating.
	// On failure outcomes the order is cancelled and stock restored in the
	// same transaction.
	ApplyPaymentOutcome(ctx context.Context, orderID uuid.UUID, outcome PaymentOutcome) (o *Order, duplicate bool, err error)
}
