package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elmalimarket/elmali/internal/domain"
	"github.com/elmalimarket/elmali/internal/events"
)

func validGuestOrder() domain.GuestOrder {
	return domain.GuestOrder{
		FirstName: "Ayşe",
		LastName:  "Yılmaz",
		Email:     "ayse@example.com",
		Phone:     "05321234567",
		Address:   domain.Address{FullName: "Ayşe Yılmaz", Line1: "Atatürk Cad. 1", City: "Amasya"},
		Items: []domain.GuestOrderItem{
			{ProductID: uuid.New(), Quantity: 3},
		},
		PaymentMethod: "credit_card",
	}
}

func TestCreateGuestOrderPublishesEvent(t *testing.T) {
	userID := uuid.New()
	store := &mockOrderStore{
		CreateGuestOrderFn: func(_ context.Context, g domain.GuestOrder) (*domain.Order, error) {
			return pendingOrder(userID), nil
		},
	}
	bus := &capturingBus{}
	svc := NewOrderService(store, &mockUserStore{}, bus, testLogger())

	order, err := svc.CreateGuestOrder(context.Background(), validGuestOrder())
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)

	require.Len(t, bus.published, 1)
	ev := bus.published[0]
	assert.Equal(t, events.TypeOrderCreated, ev.Type)
	assert.Equal(t, "ayse@example.com", ev.Email)
	assert.Equal(t, "05321234567", ev.Phone)
	assert.Len(t, ev.Items, 2)
}

func TestCreateGuestOrderRejectsEmptyBasket(t *testing.T) {
	called := false
	store := &mockOrderStore{
		CreateGuestOrderFn: func(context.Context, domain.GuestOrder) (*domain.Order, error) {
			called = true
			return nil, nil
		},
	}
	svc := NewOrderService(store, &mockUserStore{}, &capturingBus{}, testLogger())

	g := validGuestOrder()
	g.Items = nil
	_, err := svc.CreateGuestOrder(context.Background(), g)

	assert.True(t, domain.IsValidationError(err))
	assert.False(t, called, "store must not be touched on validation failure")
}

func TestCreateGuestOrderRejectsZeroQuantity(t *testing.T) {
	svc := NewOrderService(&mockOrderStore{}, &mockUserStore{}, &capturingBus{}, testLogger())

	g := validGuestOrder()
	g.Items[0].Quantity = 0
	_, err := svc.CreateGuestOrder(context.Background(), g)

	assert.True(t, domain.IsValidationError(err))
}

func TestCancelPublishesEventWithReason(t *testing.T) {
	userID := uuid.New()
	cancelled := pendingOrder(userID)
	cancelled.Status = domain.OrderStatusCancelled
	cancelled.Notes = "İptal nedeni: changed mind"

	store := &mockOrderStore{
		CancelOrderFn: func(_ context.Context, p domain.CancelOrderParams) (*domain.Order, error) {
			assert.Equal(t, "changed mind", p.Reason)
			return cancelled, nil
		},
	}
	bus := &capturingBus{}
	svc := NewOrderService(store, &mockUserStore{}, bus, testLogger())

	order, err := svc.Cancel(context.Background(), domain.CancelOrderParams{
		OrderID: cancelled.ID,
		UserID:  userID,
		Reason:  "changed mind",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, order.Status)

	require.Len(t, bus.published, 1)
	assert.Equal(t, events.TypeOrderCancelled, bus.published[0].Type)
	assert.Equal(t, "changed mind", bus.published[0].Reason)
	assert.Equal(t, "guest@example.com", bus.published[0].Email)
}

func TestCancelErrorPublishesNothing(t *testing.T) {
	store := &mockOrderStore{
		CancelOrderFn: func(context.Context, domain.CancelOrderParams) (*domain.Order, error) {
			return nil, domain.Invalid("order.cancel", "Sipariş bu aşamada iptal edilemez")
		},
	}
	bus := &capturingBus{}
	svc := NewOrderService(store, &mockUserStore{}, bus, testLogger())

	_, err := svc.Cancel(context.Background(), domain.CancelOrderParams{OrderID: uuid.New()})

	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	assert.Empty(t, bus.published)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	called := false
	store := &mockOrderStore{
		UpdateStatusFn: func(context.Context, domain.UpdateStatusParams) (*domain.Order, bool, error) {
			called = true
			return nil, false, nil
		},
	}
	svc := NewOrderService(store, &mockUserStore{}, &capturingBus{}, testLogger())

	_, err := svc.UpdateStatus(context.Background(), domain.UpdateStatusParams{
		OrderID: uuid.New(),
		Status:  domain.OrderStatus("TELEPORTED"),
	})

	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	assert.False(t, called, "store must not be touched for an unknown status")
}

func TestUpdateStatusPublishesOnlyOnChange(t *testing.T) {
	userID := uuid.New()
	shipped := pendingOrder(userID)
	shipped.Status = domain.OrderStatusShipped
	shipped.TrackingNumber = "YK123456789TR"

	tests := []struct {
		name       string
		changed    bool
		wantEvents int
	}{
		{"status moved", true, 1},
		{"same status", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockOrderStore{
				UpdateStatusFn: func(context.Context, domain.UpdateStatusParams) (*domain.Order, bool, error) {
					return shipped, tt.changed, nil
				},
			}
			bus := &capturingBus{}
			svc := NewOrderService(store, &mockUserStore{}, bus, testLogger())

			_, err := svc.UpdateStatus(context.Background(), domain.UpdateStatusParams{
				OrderID: shipped.ID,
				Status:  domain.OrderStatusShipped,
			})
			require.NoError(t, err)
			assert.Len(t, bus.published, tt.wantEvents)
			if tt.wantEvents == 1 {
				assert.Equal(t, events.TypeOrderStatusChanged, bus.published[0].Type)
				assert.Equal(t, "YK123456789TR", bus.published[0].TrackingNumber)
			}
		})
	}
}

func TestUpdateStatusToCancelledEmitsCancelledEvent(t *testing.T) {
	userID := uuid.New()
	cancelled := pendingOrder(userID)
	cancelled.Status = domain.OrderStatusCancelled

	store := &mockOrderStore{
		UpdateStatusFn: func(context.Context, domain.UpdateStatusParams) (*domain.Order, bool, error) {
			return cancelled, true, nil
		},
	}
	bus := &capturingBus{}
	svc := NewOrderService(store, &mockUserStore{}, bus, testLogger())

	_, err := svc.UpdateStatus(context.Background(), domain.UpdateStatusParams{
		OrderID: cancelled.ID,
		Status:  domain.OrderStatusCancelled,
	})
	require.NoError(t, err)
	require.Len(t, bus.published, 1)
	assert.Equal(t, events.TypeOrderCancelled, bus.published[0].Type)
}
