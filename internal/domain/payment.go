package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PaymentSessionStatus tracks one attempt to pay for an order via the
// hosted gateway. An order may accumulate several sessions across retries,
// but at most one ever resolves to PAID.
type PaymentSessionStatus string

const (
	PaymentSessionCreated   PaymentSessionStatus = "CREATED"
	PaymentSessionSucceeded PaymentSessionStatus = "SUCCEEDED"
	PaymentSessionFailed    PaymentSessionStatus = "FAILED"

	// PaymentSessionExpired marks sessions whose hosted page token aged out
	// without a callback. Set by the background sweeper, never by the
	// reconciler.
	PaymentSessionExpired PaymentSessionStatus = "EXPIRED"
)

// PaymentSession records a hosted-payment attempt: the token the gateway
// issued, the exact amount sent in the gateway's minor unit, and the outcome
// once the callback lands.
type PaymentSession struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	Token       string
	AmountKurus int64
	Method      string
	Status      PaymentSessionStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PaymentSessionStore persists payment sessions.
type PaymentSessionStore interface {
	CreateSession(ctx context.Context, s *PaymentSession) error

	// ResolveSessions marks every open session for the order with the final
	// outcome. Called by the reconciler after the order transition commits.
	ResolveSessions(ctx context.Context, orderID uuid.UUID, status PaymentSessionStatus) error
}
