package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/elmalimarket/elmali/internal/domain"
)

// Compile-time check that Store implements domain.PaymentSessionStore.
var _ domain.PaymentSessionStore = (*Store)(nil)

// CreateSession records one hosted-payment attempt for an order.
func (s *Store) CreateSession(ctx context.Context, sess *domain.PaymentSession) error {
	const op = "payment.create_session"

	err := s.pool.QueryRow(ctx, `
		INSERT INTO payment_sessions (order_id, token, amount_kurus, method, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		sess.OrderID, sess.Token, sess.AmountKurus, sess.Method, sess.Status,
	).Scan(&sess.ID, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return domain.Internal(err, op, "failed to create payment session")
	}
	return nil
}

// ResolveSessions marks every open session for the order with the final
// outcome once the gateway callback has been applied.
func (s *Store) ResolveSessions(ctx context.Context, orderID uuid.UUID, status domain.PaymentSessionStatus) error {
	const op = "payment.resolve_sessions"

	_, err := s.pool.Exec(ctx, `
		UPDATE payment_sessions
		SET status = $1, updated_at = now()
		WHERE order_id = $2 AND status = $3`,
		status, orderID, domain.PaymentSessionCreated)
	if err != nil {
		return domain.Internal(err, op, "failed to resolve payment sessions")
	}
	return nil
}

// ExpireStaleSessions marks open sessions created before cutoff as EXPIRED
// and reports how many rows changed. The reconciler never touches expired
// sessions, so a late callback still lands on the order itself.
func (s *Store) ExpireStaleSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	const op = "payment.expire_stale_sessions"

	tag, err := s.pool.Exec(ctx, `
		UPDATE payment_sessions
		SET status = $1, updated_at = now()
		WHERE status = $2 AND created_at < $3`,
		domain.PaymentSessionExpired, domain.PaymentSessionCreated, cutoff)
	if err != nil {
		return 0, domain.Internal(err, op, "failed to expire payment sessions")
	}
	return tag.RowsAffected(), nil
}
