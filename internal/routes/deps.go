package routes

import (
	"github.com/elmalimarket/elmali/internal/handler"
	"github.com/elmalimarket/elmali/internal/handler/webhook"
)

// APIDeps contains the handlers behind the authenticated and public
// JSON API routes.
type APIDeps struct {
	OrderHandler   *handler.OrderHandler
	PaymentHandler *handler.PaymentHandler
}

// WebhookDeps contains the handlers for inbound gateway callbacks.
type WebhookDeps struct {
	PayTRHandler *webhook.PayTRHandler
}
