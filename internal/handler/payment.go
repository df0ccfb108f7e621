package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/elmalimarket/elmali/internal/domain"
	"github.com/elmalimarket/elmali/internal/middleware"
	"github.com/elmalimarket/elmali/internal/service"
	"github.com/elmalimarket/elmali/internal/telemetry"
)

// PaymentHandler serves the payment endpoints.
type PaymentHandler struct {
	payments *service.PaymentService
	metrics  *telemetry.BusinessMetrics
	validate *validator.Validate
}

// NewPaymentHandler creates a PaymentHandler.
func NewPaymentHandler(payments *service.PaymentService, metrics *telemetry.BusinessMetrics) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		metrics:  metrics,
		validate: validator.New(),
	}
}

type initiatePaymentRequest struct {
	OrderID       string `json:"orderId" validate:"required,uuid"`
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=credit_card bank_transfer"`
	Installment   int    `json:"installment"`
}

// Initiate handles POST /api/payments/initiate. Authentication is optional:
// guests pay their own freshly-created orders, logged-in customers are
// ownership-checked.
func (h *PaymentHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	const op = "handler.payment.initiate"

	var req initiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, domain.Invalid(op, "Geçersiz istek gövdesi"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		ValidationErrorResponse(w, r, toValidationError(op, err))
		return
	}
	orderID, _ := uuid.Parse(req.OrderID)

	params := service.InitiatePaymentParams{
		OrderID:     orderID,
		Method:      req.PaymentMethod,
		Installment: req.Installment,
		UserIP:      middleware.GetClientIPFromContext(r.Context()),
	}
	if params.UserIP == "" {
		params.UserIP = middleware.GetClientIP(r)
	}
	if user := middleware.GetAuthUser(r.Context()); user != nil {
		params.UserID = &user.ID
		params.IsAdmin = user.Admin
	}

	res, err := h.payments.Initiate(r.Context(), params)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.PaymentsInitiated.Inc()
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"paymentUrl": res.PaymentURL,
		"token":      res.Token,
	})
}

// Methods handles GET /api/payments/methods. An optional `amount` query
// parameter (kuruş) adds the installment table.
func (h *PaymentHandler) Methods(w http.ResponseWriter, r *http.Request) {
	const op = "handler.payment.methods"

	var amount int64
	if raw := r.URL.Query().Get("amount"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			ErrorResponse(w, r, domain.Invalid(op, "Geçersiz tutar"))
			return
		}
		amount = v
	}

	writeJSON(w, http.StatusOK, h.payments.Methods(amount))
}

type validateCardRequest struct {
	CardNumber  string `json:"cardNumber"`
	Expiry      string `json:"expiry"`
	CVV         string `json:"cvv"`
	HolderName  string `json:"holderName"`
	Installment int    `json:"installment"`
}

// ValidateCard handles POST /api/payments/methods: shape validation of card
// fields before the shopper is sent to the hosted page. The card data is
// never stored or forwarded.
func (h *PaymentHandler) ValidateCard(w http.ResponseWriter, r *http.Request) {
	const op = "handler.payment.validate_card"

	var req validateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, domain.Invalid(op, "Geçersiz istek gövdesi"))
		return
	}

	err := h.payments.ValidateCard(service.CardInfo{
		Number:      req.CardNumber,
		Expiry:      req.Expiry,
		CVV:         req.CVV,
		HolderName:  req.HolderName,
		Installment: req.Installment,
	})
	if err != nil {
		ValidationErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}
