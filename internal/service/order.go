// Package service implements the business operations behind the HTTP
// handlers: guest order creation, cancellation, status management, payment
// initiation and webhook reconciliation. Services receive their stores and
// the event bus explicitly; nothing here reaches for shared globals.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/elmalimarket/elmali/internal/domain"
	"github.com/elmalimarket/elmali/internal/events"
)

// OrderService provides order lifecycle operations.
type OrderService struct {
	store  domain.OrderStore
	users  domain.UserStore
	bus    events.Bus
	logger *slog.Logger
}

// NewOrderService creates an OrderService.
func NewOrderService(store domain.OrderStore, users domain.UserStore, bus events.Bus, logger *slog.Logger) *OrderService {
	return &OrderService{store: store, users: users, bus: bus, logger: logger}
}

// CreateGuestOrder creates an order for an anonymous buyer. The store runs
// the whole creation in one transaction; stock and product checks are
// authoritative there, not here.
func (s *OrderService) CreateGuestOrder(ctx context.Context, g domain.GuestOrder) (*domain.Order, error) {
	const op = "order.create_guest"

	if len(g.Items) == 0 {
		return nil, domain.NewValidationError(op, "items", "Sepet boş olamaz")
	}
	for _, it := range g.Items {
		if it.Quantity <= 0 {
			return nil, domain.NewValidationError(op, "items", "Ürün adedi en az 1 olmalıdır")
		}
		if it.ProductID == uuid.Nil {
			return nil, domain.NewValidationError(op, "items", "Geçersiz ürün")
		}
	}

	order, err := s.store.CreateGuestOrder(ctx, g)
	if err != nil {
		return nil, err
	}

	ev := orderEvent(events.TypeOrderCreated, order)
	ev.Email = g.Email
	ev.Phone = g.Phone
	ev.FirstName = g.FirstName
	s.publish(ctx, ev)

	return order, nil
}

// GetOrder loads an order, scoped to the owner unless the caller is admin.
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID, userID *uuid.UUID) (*domain.Order, error) {
	return s.store.GetOrder(ctx, orderID, userID)
}

// Cancel cancels an order. The store enforces the state-machine guard and
// restores stock in the same transaction.
func (s *OrderService) Cancel(ctx context.Context, p domain.CancelOrderParams) (*domain.Order, error) {
	order, err := s.store.CancelOrder(ctx, p)
	if err != nil {
		return nil, err
	}

	ev := orderEvent(events.TypeOrderCancelled, order)
	ev.Reason = p.Reason
	s.notifyOwner(ctx, &ev, order.UserID)
	s.publish(ctx, ev)

	return order, nil
}

// UpdateStatus applies an admin status change. Unknown status values are
// rejected before the store is touched; the status-changed event fires only
// when the fulfillment state actually moved.
func (s *OrderService) UpdateStatus(ctx context.Context, p domain.UpdateStatusParams) (*domain.Order, error) {
	const op = "order.update_status"

	if !domain.ValidOrderStatus(p.Status) {
		return nil, domain.Errorf(domain.EINVALID, op, "Geçersiz sipariş durumu: %s", p.Status)
	}

	order, changed, err := s.store.UpdateStatus(ctx, p)
	if err != nil {
		return nil, err
	}

	if changed {
		typ := events.TypeOrderStatusChanged
		if order.Status == domain.OrderStatusCancelled {
			typ = events.TypeOrderCancelled
		}
		ev := orderEvent(typ, order)
		ev.Reason = p.Notes
		s.notifyOwner(ctx, &ev, order.UserID)
		s.publish(ctx, ev)
	}

	return order, nil
}

// orderEvent builds the shared parts of an order event payload.
func orderEvent(typ events.Type, o *domain.Order) events.OrderEvent {
	ev := events.OrderEvent{
		Type:          typ,
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalKurus:    o.TotalKurus,
		OccurredAt:    time.Now().UTC(),
	}
	if o.TrackingNumber != "" {
		ev.TrackingNumber = o.TrackingNumber
	}
	if o.EstimatedDelivery != nil {
		ev.EstimatedDelivery = o.EstimatedDelivery.Format("02.01.2006")
	}
	for _, it := range o.Items {
		ev.Items = append(ev.Items, events.OrderEventItem{
			ProductName: it.ProductName,
			Quantity:    int(it.Quantity),
			TotalKurus:  it.TotalKurus,
		})
	}
	return ev
}

// notifyOwner fills the recipient snapshot from the owning user. A lookup
// failure only degrades the notification, never the operation.
func (s *OrderService) notifyOwner(ctx context.Context, ev *events.OrderEvent, userID uuid.UUID) {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		s.logger.Warn("could not resolve order owner for notification",
			slog.String("order_number", ev.OrderNumber),
			slog.String("error", err.Error()))
		return
	}
	ev.Email = u.Email
	ev.Phone = u.Phone
	ev.FirstName = u.FirstName
}

// publish emits an event after the store transaction committed. Publishing
// failures are logged and swallowed: a lost notification is acceptable, a
// failed order operation is not.
func (s *OrderService) publish(ctx context.Context, ev events.OrderEvent) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.logger.Error("failed to publish order event",
			slog.String("type", string(ev.Type)),
			slog.String("order_number", ev.OrderNumber),
			slog.String("error", err.Error()))
	}
}
