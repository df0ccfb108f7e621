package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const (
	// AuthContextKey is the context key for the authenticated caller.
	AuthContextKey contextKey = "auth"
)

// AuthUser is the caller identity parsed from a bearer token. Token issuance
// lives in the storefront monolith; this service only verifies and reads.
type AuthUser struct {
	ID    uuid.UUID
	Admin bool
}

type claims struct {
	Admin bool `json:"admin"`
	jwt.RegisteredClaims
}

// WithAuth parses an optional Authorization bearer token and stores the
// caller in the request context. Requests without a token, or with an
// invalid one, continue anonymously; endpoints that require identity use
// RequireAuth or RequireAdmin on top.
func WithAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := parseToken(raw, secret)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), AuthContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests without an authenticated caller.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetAuthUser(r.Context()) == nil {
			respondUnauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests unless the caller is an admin.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetAuthUser(r.Context())
		if user == nil {
			respondUnauthorized(w, r)
			return
		}
		if !user.Admin {
			respondForbidden(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetAuthUser retrieves the authenticated caller from the context.
// Returns nil for anonymous requests.
func GetAuthUser(ctx context.Context) *AuthUser {
	user, ok := ctx.Value(AuthContextKey).(*AuthUser)
	if !ok {
		return nil
	}
	return user
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func parseToken(raw, secret string) (*AuthUser, error) {
	var c claims
	token, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, err
	}

	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, err
	}
	return &AuthUser{ID: id, Admin: c.Admin}, nil
}
