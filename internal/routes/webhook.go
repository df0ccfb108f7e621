package routes

import (
	"github.com/elmalimarket/elmali/internal/router"
)

// RegisterWebhookRoutes registers inbound callback routes.
//
// Note: webhook routes do NOT have authentication middleware. The handler
// verifies the gateway's HMAC signature itself before touching any state.
// The gateway also probes the endpoint with a GET during merchant setup,
// so the route is registered without a method and the handler dispatches.
func RegisterWebhookRoutes(r *router.Router, deps WebhookDeps) {
	r.HandleFunc("/webhooks/paytr", deps.PayTRHandler.HandleCallback)
}
