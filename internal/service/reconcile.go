package service

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/elmalimarket/elmali/internal/domain"
	"github.com/elmalimarket/elmali/internal/events"
	"github.com/elmalimarket/elmali/internal/paytr"
	"github.com/elmalimarket/elmali/internal/telemetry"
)

// Reconciler applies verified gateway callbacks to orders. It is the only
// component allowed to set PaymentStatus to a terminal value.
type Reconciler struct {
	orders   domain.OrderStore
	sessions domain.PaymentSessionStore
	users    domain.UserStore
	gateway  paytr.Gateway
	bus      events.Bus
	metrics  *telemetry.BusinessMetrics
	logger   *slog.Logger
}

// NewReconciler creates a Reconciler.
func NewReconciler(orders domain.OrderStore, sessions domain.PaymentSessionStore, users domain.UserStore, gateway paytr.Gateway, bus events.Bus, metrics *telemetry.BusinessMetrics, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		orders:   orders,
		sessions: sessions,
		users:    users,
		gateway:  gateway,
		bus:      bus,
		metrics:  metrics,
		logger:   logger,
	}
}

// ProcessCallback authenticates and applies one gateway callback form.
//
// Verification failures (missing fields, bad hash) return EINVALID and must
// never mutate anything. A duplicate delivery of an already-applied outcome
// is reported as success with no new mutation and no re-notification. Once
// the order transition has committed, notification problems are the
// worker's to log; the handler acknowledges regardless.
func (r *Reconciler) ProcessCallback(ctx context.Context, form url.Values) error {
	const op = "payment.reconcile"

	outcome, err := r.gateway.VerifyCallback(form)
	if err != nil {
		r.metrics.WebhookRejected()
		return err
	}

	order, err := r.orders.GetOrderByRef(ctx, outcome.OrderRef)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			r.logger.Warn("callback for unknown order",
				slog.String("merchant_oid", outcome.OrderRef))
		}
		return err
	}

	if outcome.Paid && outcome.AmountKurus != order.TotalKurus {
		// Installment markup makes the collected amount exceed the order
		// total; log the delta, the gateway's word on the money is final.
		r.logger.Info("callback amount differs from order total",
			slog.String("order_number", order.OrderNumber),
			slog.Int64("order_kurus", order.TotalKurus),
			slog.Int64("paid_kurus", outcome.AmountKurus))
	}

	updated, duplicate, err := r.orders.ApplyPaymentOutcome(ctx, order.ID, *outcome)
	if err != nil {
		return err
	}
	if duplicate {
		r.metrics.WebhookDuplicate()
		r.logger.Info("duplicate callback ignored",
			slog.String("order_number", order.OrderNumber),
			slog.String("payment_status", string(updated.PaymentStatus)))
		return nil
	}

	sessionStatus := domain.PaymentSessionFailed
	if outcome.Paid {
		sessionStatus = domain.PaymentSessionSucceeded
	}
	if err := r.sessions.ResolveSessions(ctx, updated.ID, sessionStatus); err != nil {
		r.logger.Error("failed to resolve payment sessions",
			slog.String("order_number", updated.OrderNumber),
			slog.String("error", err.Error()))
	}

	r.metrics.PaymentProcessed(outcome.Paid)
	r.publishOutcome(ctx, updated, outcome)
	return nil
}

func (r *Reconciler) publishOutcome(ctx context.Context, order *domain.Order, outcome *domain.PaymentOutcome) {
	if r.bus == nil {
		return
	}

	typ := events.TypePaymentFailed
	if outcome.Paid {
		typ = events.TypePaymentReceived
	}
	ev := orderEvent(typ, order)
	if !outcome.Paid {
		ev.Reason = outcome.FailMessage
	}

	if u, err := r.users.GetUser(ctx, order.UserID); err == nil {
		ev.Email = u.Email
		ev.Phone = u.Phone
		ev.FirstName = u.FirstName
	} else {
		r.logger.Warn("could not resolve order owner for payment notification",
			slog.String("order_number", order.OrderNumber),
			slog.String("error", err.Error()))
	}

	if err := r.bus.Publish(ctx, ev); err != nil {
		r.logger.Error("failed to publish payment event",
			slog.String("type", string(typ)),
			slog.String("order_number", order.OrderNumber),
			slog.String("error", err.Error()))
	}
}
