package service

import (
	"context"
	"io"
	"log/slog"
	"net/url"

	"github.com/google/uuid"

	"github.com/elmalimarket/elmali/internal/domain"
	"github.com/elmalimarket/elmali/internal/events"
	"github.com/elmalimarket/elmali/internal/paytr"
)

// mockOrderStore implements domain.OrderStore with function fields so each
// test overrides only what it needs.
type mockOrderStore struct {
	CreateGuestOrderFn    func(ctx context.Context, g domain.GuestOrder) (*domain.Order, error)
	GetOrderFn            func(ctx context.Context, orderID uuid.UUID, userID *uuid.UUID) (*domain.Order, error)
	GetOrderByRefFn       func(ctx context.Context, ref string) (*domain.Order, error)
	CancelOrderFn         func(ctx context.Context, p domain.CancelOrderParams) (*domain.Order, error)
	UpdateStatusFn        func(ctx context.Context, p domain.UpdateStatusParams) (*domain.Order, bool, error)
	ApplyPaymentOutcomeFn func(ctx context.Context, orderID uuid.UUID, outcome domain.PaymentOutcome) (*domain.Order, bool, error)
}

func (m *mockOrderStore) CreateGuestOrder(ctx context.Context, g domain.GuestOrder) (*domain.Order, error) {
	return m.CreateGuestOrderFn(ctx, g)
}

func (m *mockOrderStore) GetOrder(ctx context.Context, orderID uuid.UUID, userID *uuid.UUID) (*domain.Order, error) {
	return m.GetOrderFn(ctx, orderID, userID)
}

func (m *mockOrderStore) GetOrderByRef(ctx context.Context, ref string) (*domain.Order, error) {
	return m.GetOrderByRefFn(ctx, ref)
}

func (m *mockOrderStore) CancelOrder(ctx context.Context, p domain.CancelOrderParams) (*domain.Order, error) {
	return m.CancelOrderFn(ctx, p)
}

func (m *mockOrderStore) UpdateStatus(ctx context.Context, p domain.UpdateStatusParams) (*domain.Order, bool, error) {
	return m.UpdateStatusFn(ctx, p)
}

func (m *mockOrderStore) ApplyPaymentOutcome(ctx context.Context, orderID uuid.UUID, outcome domain.PaymentOutcome) (*domain.Order, bool, error) {
	return m.ApplyPaymentOutcomeFn(ctx, orderID, outcome)
}

type mockUserStore struct {
	GetUserFn    func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetAddressFn func(ctx context.Context, id uuid.UUID) (*domain.Address, error)
}

func (m *mockUserStore) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetUserFn != nil {
		return m.GetUserFn(ctx, id)
	}
	return &domain.User{ID: id, Email: "guest@example.com", FirstName: "Ayşe", Phone: "05321234567"}, nil
}

func (m *mockUserStore) GetAddress(ctx context.Context, id uuid.UUID) (*domain.Address, error) {
	if m.GetAddressFn != nil {
		return m.GetAddressFn(ctx, id)
	}
	return &domain.Address{ID: id, Line1: "Atatürk Cad. 1", City: "Amasya"}, nil
}

type mockSessionStore struct {
	CreateSessionFn   func(ctx context.Context, s *domain.PaymentSession) error
	ResolveSessionsFn func(ctx context.Context, orderID uuid.UUID, status domain.PaymentSessionStatus) error

	created  []*domain.PaymentSession
	resolved []domain.PaymentSessionStatus
}

func (m *mockSessionStore) CreateSession(ctx context.Context, s *domain.PaymentSession) error {
	m.created = append(m.created, s)
	if m.CreateSessionFn != nil {
		return m.CreateSessionFn(ctx, s)
	}
	return nil
}

func (m *mockSessionStore) ResolveSessions(ctx context.Context, orderID uuid.UUID, status domain.PaymentSessionStatus) error {
	m.resolved = append(m.resolved, status)
	if m.ResolveSessionsFn != nil {
		return m.ResolveSessionsFn(ctx, orderID, status)
	}
	return nil
}

type mockGateway struct {
	CreatePaymentFn  func(ctx context.Context, req paytr.CreatePaymentRequest) (*paytr.PaymentSession, error)
	VerifyCallbackFn func(form url.Values) (*domain.PaymentOutcome, error)

	createCalls int
}

func (m *mockGateway) CreatePayment(ctx context.Context, req paytr.CreatePaymentRequest) (*paytr.PaymentSession, error) {
	m.createCalls++
	if m.CreatePaymentFn != nil {
		return m.CreatePaymentFn(ctx, req)
	}
	return &paytr.PaymentSession{Token: "tok-1", PaymentURL: "https://www.paytr.com/odeme/guvenli/tok-1"}, nil
}

func (m *mockGateway) VerifyCallback(form url.Values) (*domain.PaymentOutcome, error) {
	return m.VerifyCallbackFn(form)
}

// capturingBus records published events synchronously.
type capturingBus struct {
	published []events.OrderEvent
}

func (b *capturingBus) Publish(_ context.Context, ev events.OrderEvent) error {
	b.published = append(b.published, ev)
	return nil
}

func (b *capturingBus) Subscribe(events.Handler) (func(), error) { return func() {}, nil }
func (b *capturingBus) Close()                                   {}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pendingOrder(userID uuid.UUID) *domain.Order {
	return &domain.Order{
		ID:            uuid.New(),
		OrderNumber:   "EM-20260830-A7K2",
		UserID:        userID,
		TotalKurus:    15550,
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		Items: []domain.OrderItem{
			{ProductName: "Amasya Elması 1kg", Quantity: 3, UnitPriceKurus: 3000, TotalKurus: 9000},
			{ProductName: "Ceviz İçi 250g", Quantity: 1, UnitPriceKurus: 6550, TotalKurus: 6550},
		},
	}
}
