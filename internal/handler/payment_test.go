package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elmalimarket/elmali/internal/domain"
	"github.com/elmalimarket/elmali/internal/paytr"
	"github.com/elmalimarket/elmali/internal/service"
)

func newPaymentHandler(store *fakeOrderStore, sessions *fakeSessionStore, gateway *fakeGateway) *PaymentHandler {
	svc := service.NewPaymentService(store, sessions, fakeUserStore{}, gateway, testLogger())
	return NewPaymentHandler(svc, nil)
}

func TestInitiatePayment(t *testing.T) {
	order := testOrder(uuid.New())
	store := &fakeOrderStore{
		GetOrderFn: func(_ context.Context, _ uuid.UUID, _ *uuid.UUID) (*domain.Order, error) {
			return order, nil
		},
	}
	sessions := &fakeSessionStore{}
	gateway := &fakeGateway{}
	h := newPaymentHandler(store, sessions, gateway)

	body := `{"orderId":"` + order.ID.String() + `","paymentMethod":"credit_card","installment":3}`
	req := httptest.NewRequest(http.MethodPost, "/api/payments/initiate", strings.NewReader(body))
	req.RemoteAddr = "203.0.113.7:51234"
	w := httptest.NewRecorder()
	h.Initiate(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "https://www.paytr.com/odeme/guvenli/tok-1", got["paymentUrl"])
	assert.Equal(t, "tok-1", got["token"])
	assert.Equal(t, 1, gateway.createCalls)
	require.Len(t, sessions.created, 1)
	assert.Equal(t, "tok-1", sessions.created[0].Token)
}

func TestInitiatePaymentValidation(t *testing.T) {
	h := newPaymentHandler(&fakeOrderStore{}, &fakeSessionStore{}, &fakeGateway{})

	req := httptest.NewRequest(http.MethodPost, "/api/payments/initiate",
		strings.NewReader(`{"orderId":"nope","paymentMethod":"bitcoin"}`))
	w := httptest.NewRecorder()
	h.Initiate(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var envelope struct {
		Error struct {
			Fields map[string]string `json:"fields"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	assert.Contains(t, envelope.Error.Fields, "OrderID")
	assert.Contains(t, envelope.Error.Fields, "PaymentMethod")
}

func TestInitiatePaymentGatewayDecline(t *testing.T) {
	order := testOrder(uuid.New())
	store := &fakeOrderStore{
		GetOrderFn: func(_ context.Context, _ uuid.UUID, _ *uuid.UUID) (*domain.Order, error) {
			return order, nil
		},
	}
	gateway := &fakeGateway{
		CreatePaymentFn: func(_ context.Context, _ paytr.CreatePaymentRequest) (*paytr.PaymentSession, error) {
			return nil, &domain.Error{
				Code:         domain.EPAYMENT,
				Op:           "paytr.create_payment",
				Message:      "Ödeme başlatılamadı",
				ProviderCode: "1",
			}
		},
	}
	h := newPaymentHandler(store, &fakeSessionStore{}, gateway)

	body := `{"orderId":"` + order.ID.String() + `","paymentMethod":"credit_card"}`
	req := httptest.NewRequest(http.MethodPost, "/api/payments/initiate", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Initiate(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var envelope struct {
		Error struct {
			Code         string `json:"code"`
			ProviderCode string `json:"providerCode"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	assert.Equal(t, domain.EPAYMENT, envelope.Error.Code)
	assert.Equal(t, "1", envelope.Error.ProviderCode)
}

func TestPaymentMethods(t *testing.T) {
	h := newPaymentHandler(&fakeOrderStore{}, &fakeSessionStore{}, &fakeGateway{})

	req := httptest.NewRequest(http.MethodGet, "/api/payments/methods?amount=250000", nil)
	w := httptest.NewRecorder()
	h.Methods(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var got service.PaymentMethods
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Len(t, got.Methods, 2)
	assert.NotEmpty(t, got.Installments)
	assert.NotEmpty(t, got.Security)
}

func TestPaymentMethodsBadAmount(t *testing.T) {
	h := newPaymentHandler(&fakeOrderStore{}, &fakeSessionStore{}, &fakeGateway{})

	for _, amount := range []string{"abc", "-5"} {
		req := httptest.NewRequest(http.MethodGet, "/api/payments/methods?amount="+amount, nil)
		w := httptest.NewRecorder()
		h.Methods(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "amount=%s", amount)
	}
}

func TestValidateCard(t *testing.T) {
	h := newPaymentHandler(&fakeOrderStore{}, &fakeSessionStore{}, &fakeGateway{})

	body := `{
		"cardNumber": "4355 0843 5508 4358",
		"expiry": "12/28",
		"cvv": "000",
		"holderName": "AYŞE YILMAZ",
		"installment": 3
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/payments/methods", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ValidateCard(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]bool
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.True(t, got["valid"])
}

func TestValidateCardRejectsBadExpiry(t *testing.T) {
	h := newPaymentHandler(&fakeOrderStore{}, &fakeSessionStore{}, &fakeGateway{})

	body := `{
		"cardNumber": "4355084355084358",
		"expiry": "13/28",
		"cvv": "000",
		"holderName": "AYŞE YILMAZ",
		"installment": 1
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/payments/methods", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ValidateCard(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var envelope struct {
		Error struct {
			Fields map[string]string `json:"fields"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	assert.Contains(t, envelope.Error.Fields, "expiry")
}
