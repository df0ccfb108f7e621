package routes

import (
	"github.com/elmalimarket/elmali/internal/middleware"
	"github.com/elmalimarket/elmali/internal/router"
)

// RegisterAPIRoutes registers the order and payment JSON API.
//
// Guest checkout, payment initiation and the payment methods listing are
// public: a first-time customer has no account yet. Order reads and
// mutations require a token, and status transitions are admin only.
func RegisterAPIRoutes(r *router.Router, deps APIDeps) {
	// Orders
	r.Post("/api/orders/guest", deps.OrderHandler.CreateGuest)
	r.Get("/api/orders/{id}", deps.OrderHandler.Get, middleware.RequireAuth)
	r.Post("/api/orders/{id}/cancel", deps.OrderHandler.Cancel, middleware.RequireAuth)
	r.Put("/api/orders/{id}/status", deps.OrderHandler.UpdateStatus, middleware.RequireAdmin)

	// Payments
	r.Post("/api/payments/initiate", deps.PaymentHandler.Initiate)
	r.Get("/api/payments/methods", deps.PaymentHandler.Methods)
	r.Post("/api/payments/methods", deps.PaymentHandler.ValidateCard)
}
