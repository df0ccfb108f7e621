// Package webhook handles the payment gateway's asynchronous callbacks.
package webhook

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/elmalimarket/elmali/internal/domain"
	"github.com/elmalimarket/elmali/internal/handler"
	"github.com/elmalimarket/elmali/internal/middleware"
	"github.com/elmalimarket/elmali/internal/service"
	"github.com/elmalimarket/elmali/internal/telemetry"
)

// PayTRHandler receives PayTR payment callbacks.
type PayTRHandler struct {
	reconciler *service.Reconciler
	metrics    *telemetry.BusinessMetrics
}

// NewPayTRHandler creates a PayTR webhook handler.
func NewPayTRHandler(reconciler *service.Reconciler, metrics *telemetry.BusinessMetrics) *PayTRHandler {
	return &PayTRHandler{reconciler: reconciler, metrics: metrics}
}

// HandleCallback processes POST /webhooks/paytr. PayTR retries undelivered
// callbacks, so the rules are strict: verification failures get a 4xx and
// change nothing; once the outcome is durably applied the response is 200
// even if downstream notification work degrades. GET on the same path is a
// liveness probe for the gateway's endpoint checker.
func (h *PayTRHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	const op = "handler.webhook.paytr"

	if r.Method == http.MethodGet {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	logger := middleware.GetLogger(r.Context())

	if h.metrics != nil {
		h.metrics.WebhooksReceived.Inc()
	}

	if err := r.ParseForm(); err != nil {
		logger.Warn("callback form parse failed", slog.String("error", err.Error()))
		handler.ErrorResponse(w, r, domain.Invalid(op, "Geçersiz istek gövdesi"))
		return
	}

	err := h.reconciler.ProcessCallback(r.Context(), r.PostForm)
	if err != nil {
		code := domain.ErrorCode(err)
		switch code {
		case domain.EINVALID:
			logger.Warn("callback rejected",
				slog.String("merchant_oid", r.PostForm.Get("merchant_oid")),
				slog.String("error", err.Error()))
		case domain.ENOTFOUND:
			logger.Warn("callback for unknown order",
				slog.String("merchant_oid", r.PostForm.Get("merchant_oid")))
		default:
			// A 5xx makes the gateway redeliver once the fault clears.
			logger.Error("callback processing failed",
				slog.String("merchant_oid", r.PostForm.Get("merchant_oid")),
				slog.String("error", err.Error()))
		}
		handler.ErrorResponse(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.WebhookLatency.Observe(time.Since(start).Seconds())
	}
	logger.Info("callback processed",
		slog.String("merchant_oid", r.PostForm.Get("merchant_oid")),
		slog.String("status", r.PostForm.Get("status")))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"success":true}`))
}
