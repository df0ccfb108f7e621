package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/elmalimarket/elmali/internal/domain"
	"github.com/elmalimarket/elmali/internal/paytr"
)

// PaymentService drives hosted-payment initiation and checkout metadata.
type PaymentService struct {
	orders   domain.OrderStore
	sessions domain.PaymentSessionStore
	users    domain.UserStore
	gateway  paytr.Gateway
	logger   *slog.Logger
}

// NewPaymentService creates a PaymentService.
func NewPaymentService(orders domain.OrderStore, sessions domain.PaymentSessionStore, users domain.UserStore, gateway paytr.Gateway, logger *slog.Logger) *PaymentService {
	return &PaymentService{orders: orders, sessions: sessions, users: users, gateway: gateway, logger: logger}
}

// InitiatePaymentParams identifies the order to pay and the caller.
type InitiatePaymentParams struct {
	OrderID     uuid.UUID
	Method      string
	Installment int

	// UserID is set when a bearer token accompanied the request; payment
	// initiation itself is open to guests.
	UserID  *uuid.UUID
	IsAdmin bool

	// UserIP is forwarded to the gateway for its fraud checks.
	UserIP string
}

// InitiatePaymentResult carries the hosted page handle back to the caller.
type InitiatePaymentResult struct {
	PaymentURL string
	Token      string
}

// Initiate validates the order and opens a hosted-payment session. Orders
// that are already paid or cancelled are rejected before any gateway
// traffic happens.
func (s *PaymentService) Initiate(ctx context.Context, p InitiatePaymentParams) (*InitiatePaymentResult, error) {
	const op = "payment.initiate"

	if p.Installment == 0 {
		p.Installment = 1
	}
	if !paytr.ValidInstallment(p.Installment) {
		return nil, domain.Errorf(domain.EINVALID, op, "Geçersiz taksit sayısı: %d", p.Installment)
	}

	order, err := s.orders.GetOrder(ctx, p.OrderID, nil)
	if err != nil {
		return nil, err
	}

	if p.UserID != nil && !p.IsAdmin && order.UserID != *p.UserID {
		return nil, domain.Forbidden(op, "Bu sipariş size ait değil")
	}
	if order.PaymentStatus == domain.PaymentStatusPaid {
		return nil, domain.ErrOrderAlreadyPaid
	}
	if order.Status == domain.OrderStatusCancelled {
		return nil, domain.Invalid(op, "İptal edilmiş sipariş için ödeme başlatılamaz")
	}

	user, err := s.users.GetUser(ctx, order.UserID)
	if err != nil {
		return nil, err
	}
	addr, err := s.users.GetAddress(ctx, order.ShippingAddressID)
	if err != nil {
		return nil, err
	}

	basket := make([]paytr.BasketItem, len(order.Items))
	for i, it := range order.Items {
		basket[i] = paytr.BasketItem{
			Name:       it.ProductName,
			PriceKurus: it.UnitPriceKurus,
			Quantity:   it.Quantity,
		}
	}

	session, err := s.gateway.CreatePayment(ctx, paytr.CreatePaymentRequest{
		MerchantOID: order.OrderNumber,
		Email:       user.Email,
		Name:        strings.TrimSpace(user.FirstName + " " + user.LastName),
		Address:     formatAddress(addr),
		Phone:       user.Phone,
		UserIP:      p.UserIP,
		AmountKurus: order.TotalKurus,
		Basket:      basket,
		Installment: p.Installment,
	})
	if err != nil {
		return nil, err
	}

	if err := s.sessions.CreateSession(ctx, &domain.PaymentSession{
		ID:          uuid.New(),
		OrderID:     order.ID,
		Token:       session.Token,
		AmountKurus: order.TotalKurus,
		Method:      p.Method,
		Status:      domain.PaymentSessionCreated,
	}); err != nil {
		// The gateway session exists either way; losing the local record
		// costs reconciliation detail, not correctness.
		s.logger.Error("failed to persist payment session",
			slog.String("order_number", order.OrderNumber),
			slog.String("error", err.Error()))
	}

	return &InitiatePaymentResult{PaymentURL: session.PaymentURL, Token: session.Token}, nil
}

// PaymentMethods describes the checkout options shown to the storefront.
type PaymentMethods struct {
	Methods      []PaymentMethod           `json:"methods"`
	Installments []paytr.InstallmentOption `json:"installments,omitempty"`
	Security     []string                  `json:"security"`
}

// PaymentMethod is one supported payment option.
type PaymentMethod struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Methods lists the supported payment methods. When amountKurus is positive
// the per-amount installment table is included.
func (s *PaymentService) Methods(amountKurus int64) PaymentMethods {
	m := PaymentMethods{
		Methods: []PaymentMethod{
			{ID: "credit_card", Name: "Kredi / Banka Kartı", Description: "PayTR güvenli ödeme sayfası üzerinden kartla ödeme"},
			{ID: "bank_transfer", Name: "Havale / EFT", Description: "Sipariş onayından sonra banka hesabımıza havale"},
		},
		Security: []string{
			"256-bit SSL ile şifreli ödeme",
			"3D Secure doğrulama",
			"Kart bilgileriniz sistemimizde saklanmaz",
		},
	}
	if amountKurus > 0 {
		m.Installments = paytr.ComputeInstallments(amountKurus)
	}
	return m
}

// CardInfo is the card shape submitted for pre-checkout validation. The card
// never reaches our servers during a real payment; the hosted page collects
// it. This check only lets the storefront surface mistakes early.
type CardInfo struct {
	Number      string
	Expiry      string
	CVV         string
	HolderName  string
	Installment int
}

var (
	cardNumberPattern = regexp.MustCompile(`^\d{15,19}$`)
	expiryPattern     = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvvPattern        = regexp.MustCompile(`^\d{3,4}$`)
)

// ValidateCard checks the card fields for shape only. It never contacts the
// gateway.
func (s *PaymentService) ValidateCard(card CardInfo) error {
	const op = "payment.validate_card"

	fields := map[string]string{}
	if !cardNumberPattern.MatchString(strings.ReplaceAll(card.Number, " ", "")) {
		fields["cardNumber"] = "Kart numarası 15-19 haneli olmalıdır"
	}
	if !expiryPattern.MatchString(card.Expiry) {
		fields["expiry"] = "Son kullanma tarihi AA/YY biçiminde olmalıdır"
	}
	if !cvvPattern.MatchString(card.CVV) {
		fields["cvv"] = "CVV 3 veya 4 haneli olmalıdır"
	}
	if len(strings.TrimSpace(card.HolderName)) < 5 {
		fields["holderName"] = "Kart üzerindeki isim en az 5 karakter olmalıdır"
	}
	if card.Installment != 0 && !paytr.ValidInstallment(card.Installment) {
		fields["installment"] = fmt.Sprintf("Geçersiz taksit sayısı: %d", card.Installment)
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Op: op, Fields: fields}
	}
	return nil
}

func formatAddress(a *domain.Address) string {
	parts := []string{a.Line1}
	if a.Line2 != "" {
		parts = append(parts, a.Line2)
	}
	if a.District != "" {
		parts = append(parts, a.District)
	}
	parts = append(parts, a.City)
	return strings.Join(parts, ", ")
}
