package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/elmalimarket/elmali/internal/domain"
	"github.com/elmalimarket/elmali/internal/middleware"
	"github.com/elmalimarket/elmali/internal/paytr"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeOrderStore implements domain.OrderStore with function fields so each
// test overrides only what it needs.
type fakeOrderStore struct {
	CreateGuestOrderFn    func(ctx context.Context, g domain.GuestOrder) (*domain.Order, error)
	GetOrderFn            func(ctx context.Context, orderID uuid.UUID, userID *uuid.UUID) (*domain.Order, error)
	GetOrderByRefFn       func(ctx context.Context, ref string) (*domain.Order, error)
	CancelOrderFn         func(ctx context.Context, p domain.CancelOrderParams) (*domain.Order, error)
	UpdateStatusFn        func(ctx context.Context, p domain.UpdateStatusParams) (*domain.Order, bool, error)
	ApplyPaymentOutcomeFn func(ctx context.Context, orderID uuid.UUID, outcome domain.PaymentOutcome) (*domain.Order, bool, error)
}

func (f *fakeOrderStore) CreateGuestOrder(ctx context.Context, g domain.GuestOrder) (*domain.Order, error) {
	return f.CreateGuestOrderFn(ctx, g)
}

func (f *fakeOrderStore) GetOrder(ctx context.Context, orderID uuid.UUID, userID *uuid.UUID) (*domain.Order, error) {
	return f.GetOrderFn(ctx, orderID, userID)
}

func (f *fakeOrderStore) GetOrderByRef(ctx context.Context, ref string) (*domain.Order, error) {
	return f.GetOrderByRefFn(ctx, ref)
}

func (f *fakeOrderStore) CancelOrder(ctx context.Context, p domain.CancelOrderParams) (*domain.Order, error) {
	return f.CancelOrderFn(ctx, p)
}

func (f *fakeOrderStore) UpdateStatus(ctx context.Context, p domain.UpdateStatusParams) (*domain.Order, bool, error) {
	return f.UpdateStatusFn(ctx, p)
}

func (f *fakeOrderStore) ApplyPaymentOutcome(ctx context.Context, orderID uuid.UUID, outcome domain.PaymentOutcome) (*domain.Order, bool, error) {
	return f.ApplyPaymentOutcomeFn(ctx, orderID, outcome)
}

type fakeUserStore struct{}

func (fakeUserStore) GetUser(_ context.Context, id uuid.UUID) (*domain.User, error) {
	return &domain.User{ID: id, Email: "guest@example.com", FirstName: "Ayşe", Phone: "05321234567"}, nil
}

func (fakeUserStore) GetAddress(_ context.Context, id uuid.UUID) (*domain.Address, error) {
	return &domain.Address{ID: id, Line1: "Atatürk Cad. 1", City: "Amasya"}, nil
}

type fakeSessionStore struct {
	created []*domain.PaymentSession
}

func (f *fakeSessionStore) CreateSession(_ context.Context, s *domain.PaymentSession) error {
	f.created = append(f.created, s)
	return nil
}

func (f *fakeSessionStore) ResolveSessions(_ context.Context, _ uuid.UUID, _ domain.PaymentSessionStatus) error {
	return nil
}

type fakeGateway struct {
	CreatePaymentFn func(ctx context.Context, req paytr.CreatePaymentRequest) (*paytr.PaymentSession, error)

	createCalls int
}

func (f *fakeGateway) CreatePayment(ctx context.Context, req paytr.CreatePaymentRequest) (*paytr.PaymentSession, error) {
	f.createCalls++
	if f.CreatePaymentFn != nil {
		return f.CreatePaymentFn(ctx, req)
	}
	return &paytr.PaymentSession{Token: "tok-1", PaymentURL: "https://www.paytr.com/odeme/guvenli/tok-1"}, nil
}

func (f *fakeGateway) VerifyCallback(_ url.Values) (*domain.PaymentOutcome, error) {
	return nil, domain.Invalid("fake", "not implemented")
}

// asUser attaches an authenticated caller, the way WithAuth does after
// verifying a bearer token.
func asUser(r *http.Request, id uuid.UUID, admin bool) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.AuthContextKey, &middleware.AuthUser{ID: id, Admin: admin})
	return r.WithContext(ctx)
}

func testOrder(userID uuid.UUID) *domain.Order {
	return &domain.Order{
		ID:            uuid.New(),
		OrderNumber:   "EM-20260830-A7K2",
		UserID:        userID,
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		TotalKurus:    15550,
		Items: []domain.OrderItem{
			{
				ID:             uuid.New(),
				ProductID:      uuid.New(),
				ProductName:    "Amasya Elması 1kg",
				Quantity:       2,
				UnitPriceKurus: 4500,
				TotalKurus:     9000,
			},
			{
				ID:             uuid.New(),
				ProductID:      uuid.New(),
				ProductName:    "Köy Tereyağı 500g",
				Quantity:       1,
				UnitPriceKurus: 6550,
				TotalKurus:     6550,
			},
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}
