package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request ID to and from upstream proxies.
	RequestIDHeader = "X-Request-ID"

	// RequestIDContextKey is the context key the request logger reads.
	RequestIDContextKey contextKey = "request_id"
)

// RequestID tags every request with an ID for correlating handler logs with
// gateway callbacks. An incoming X-Request-ID (set by the load balancer) is
// reused so traces span hops; otherwise a fresh UUID is minted. The ID is
// echoed on the response and stored in the request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), RequestIDContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request ID from ctx, or "" outside a request.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}
