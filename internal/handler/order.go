package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/elmalimarket/elmali/internal/domain"
	"github.com/elmalimarket/elmali/internal/middleware"
	"github.com/elmalimarket/elmali/internal/service"
	"github.com/elmalimarket/elmali/internal/telemetry"
)

// OrderHandler serves the order endpoints.
type OrderHandler struct {
	orders   *service.OrderService
	metrics  *telemetry.BusinessMetrics
	validate *validator.Validate
}

// NewOrderHandler creates an OrderHandler.
func NewOrderHandler(orders *service.OrderService, metrics *telemetry.BusinessMetrics) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		metrics:  metrics,
		validate: validator.New(),
	}
}

type guestOrderRequest struct {
	GuestInfo struct {
		FirstName string `json:"firstName" validate:"required"`
		LastName  string `json:"lastName" validate:"required"`
		Email     string `json:"email" validate:"required,email"`
		Phone     string `json:"phone" validate:"required"`
	} `json:"guestInfo" validate:"required"`
	ShippingAddress struct {
		FullName string `json:"fullName" validate:"required"`
		Line1    string `json:"line1" validate:"required"`
		Line2    string `json:"line2"`
		City     string `json:"city" validate:"required"`
		District string `json:"district"`
		PostCode string `json:"postCode"`
		Phone    string `json:"phone"`
	} `json:"shippingAddress" validate:"required"`
	Items []struct {
		ProductID string `json:"productId" validate:"required,uuid"`
		Quantity  int32  `json:"quantity" validate:"required,gt=0"`
	} `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=credit_card bank_transfer"`
	Notes         string `json:"notes"`
}

// CreateGuest handles POST /api/orders/guest.
func (h *OrderHandler) CreateGuest(w http.ResponseWriter, r *http.Request) {
	const op = "handler.order.create_guest"

	var req guestOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, domain.Invalid(op, "Geçersiz istek gövdesi"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		ValidationErrorResponse(w, r, toValidationError(op, err))
		return
	}

	g := domain.GuestOrder{
		FirstName: req.GuestInfo.FirstName,
		LastName:  req.GuestInfo.LastName,
		Email:     req.GuestInfo.Email,
		Phone:     req.GuestInfo.Phone,
		Address: domain.Address{
			FullName: req.ShippingAddress.FullName,
			Line1:    req.ShippingAddress.Line1,
			Line2:    req.ShippingAddress.Line2,
			City:     req.ShippingAddress.City,
			District: req.ShippingAddress.District,
			PostCode: req.ShippingAddress.PostCode,
			Phone:    req.ShippingAddress.Phone,
		},
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	}
	for _, it := range req.Items {
		// uuid tag already validated the format
		id, _ := uuid.Parse(it.ProductID)
		g.Items = append(g.Items, domain.GuestOrderItem{ProductID: id, Quantity: it.Quantity})
	}

	order, err := h.orders.CreateGuestOrder(r.Context(), g)
	if err != nil {
		if domain.IsValidationError(err) {
			ValidationErrorResponse(w, r, err)
			return
		}
		ErrorResponse(w, r, err)
		return
	}

	h.metrics.OrderCreated(order.TotalKurus, len(order.Items))
	middleware.GetLogger(r.Context()).Info("guest order created",
		"order_number", order.OrderNumber,
		"total_kurus", order.TotalKurus)

	writeJSON(w, http.StatusCreated, orderResponse(order))
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

// Cancel handles POST /api/orders/{id}/cancel.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	const op = "handler.order.cancel"

	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, domain.Invalid(op, "Geçersiz sipariş kimliği"))
		return
	}

	user := middleware.GetAuthUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r)
		return
	}

	var req cancelOrderRequest
	if r.Body != nil {
		// Reason is optional; an empty body is fine.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	order, err := h.orders.Cancel(r.Context(), domain.CancelOrderParams{
		OrderID: orderID,
		UserID:  user.ID,
		IsAdmin: user.Admin,
		Reason:  req.Reason,
	})
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	initiator := "customer"
	if user.Admin {
		initiator = "admin"
	}
	h.metrics.OrderCancelled(initiator)

	writeJSON(w, http.StatusOK, orderResponse(order))
}

type updateStatusRequest struct {
	Status            string `json:"status" validate:"required"`
	TrackingNumber    string `json:"trackingNumber"`
	EstimatedDelivery string `json:"estimatedDelivery"` // 2006-01-02
	Notes             string `json:"notes"`
}

// UpdateStatus handles PUT /api/orders/{id}/status. Admin only; the route
// wraps this in RequireAdmin.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	const op = "handler.order.update_status"

	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, domain.Invalid(op, "Geçersiz sipariş kimliği"))
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorResponse(w, r, domain.Invalid(op, "Geçersiz istek gövdesi"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		ValidationErrorResponse(w, r, toValidationError(op, err))
		return
	}

	p := domain.UpdateStatusParams{
		OrderID:        orderID,
		Status:         domain.OrderStatus(req.Status),
		TrackingNumber: req.TrackingNumber,
		Notes:          req.Notes,
	}
	if req.EstimatedDelivery != "" {
		d, err := time.Parse("2006-01-02", req.EstimatedDelivery)
		if err != nil {
			ValidationErrorResponse(w, r, domain.NewValidationError(op, "estimatedDelivery", "Tarih YYYY-AA-GG biçiminde olmalıdır"))
			return
		}
		p.EstimatedDelivery = &d
	}

	order, err := h.orders.UpdateStatus(r.Context(), p)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	h.metrics.StatusChanged(string(order.Status))

	writeJSON(w, http.StatusOK, orderResponse(order))
}

// Get handles GET /api/orders/{id}. Non-admin callers only see their own
// orders; a foreign order reads as not found.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handler.order.get"

	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, domain.Invalid(op, "Geçersiz sipariş kimliği"))
		return
	}

	user := middleware.GetAuthUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r)
		return
	}

	var scope *uuid.UUID
	if !user.Admin {
		scope = &user.ID
	}

	order, err := h.orders.GetOrder(r.Context(), orderID, scope)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, orderResponse(order))
}

// orderJSON is the wire shape of an order.
type orderJSON struct {
	ID                string          `json:"id"`
	OrderNumber       string          `json:"orderNumber"`
	Status            string          `json:"status"`
	PaymentStatus     string          `json:"paymentStatus"`
	TotalAmount       int64           `json:"totalAmount"`
	Items             []orderItemJSON `json:"items"`
	TrackingNumber    string          `json:"trackingNumber,omitempty"`
	EstimatedDelivery string          `json:"estimatedDelivery,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}

type orderItemJSON struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int32  `json:"quantity"`
	UnitPrice   int64  `json:"unitPrice"`
	TotalPrice  int64  `json:"totalPrice"`
}

func orderResponse(o *domain.Order) orderJSON {
	resp := orderJSON{
		ID:             o.ID.String(),
		OrderNumber:    o.OrderNumber,
		Status:         string(o.Status),
		PaymentStatus:  string(o.PaymentStatus),
		TotalAmount:    o.TotalKurus,
		Items:          make([]orderItemJSON, 0, len(o.Items)),
		TrackingNumber: o.TrackingNumber,
		Notes:          o.Notes,
		CreatedAt:      o.CreatedAt,
	}
	if o.EstimatedDelivery != nil {
		resp.EstimatedDelivery = o.EstimatedDelivery.Format("2006-01-02")
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, orderItemJSON{
			ProductID:   it.ProductID.String(),
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPriceKurus,
			TotalPrice:  it.TotalKurus,
		})
	}
	return resp
}

// toValidationError converts validator.ValidationErrors into the domain's
// field-error shape.
func toValidationError(op string, err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return domain.Invalid(op, "Girilen bilgiler geçersiz")
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return &domain.ValidationError{Op: op, Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Bu alan zorunludur"
	case "email":
		return "Geçerli bir e-posta adresi girin"
	case "uuid":
		return "Geçersiz kimlik"
	case "gt", "min":
		return "Değer çok küçük"
	case "oneof":
		return "Geçersiz seçim"
	default:
		return "Geçersiz değer"
	}
}
