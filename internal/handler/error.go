// Package handler implements the JSON API endpoints and the shared error
// response contract.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/elmalimarket/elmali/internal/domain"
)

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.EPAYMENT:
		return http.StatusBadRequest
	case domain.EFORBIDDEN:
		return http.StatusForbidden
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.EUNAVAILABLE:
		return http.StatusServiceUnavailable
	case domain.EINTERNAL:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Code         string            `json:"code"`
	Message      string            `json:"message"`
	ProviderCode string            `json:"providerCode,omitempty"`
	Fields       map[string]string `json:"fields,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// ErrorResponse writes a JSON error response for a domain error. Internal
// error details never reach the caller; the gateway's own error code is
// forwarded when present so the storefront can show remediation copy.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)

	writeJSON(w, ErrorCodeToHTTPStatus(code), errorEnvelope{
		Error: errorBody{
			Code:         code,
			Message:      domain.ErrorMessage(err),
			ProviderCode: domain.ErrorProviderCode(err),
		},
	})
}

// ValidationErrorResponse writes a 400 with per-field messages. Non-validation
// errors fall back to ErrorResponse.
func ValidationErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	fields := domain.GetValidationFields(err)
	if fields == nil {
		ErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusBadRequest, errorEnvelope{
		Error: errorBody{
			Code:    domain.EINVALID,
			Message: "Girilen bilgiler geçersiz",
			Fields:  fields,
		},
	})
}

// NotFoundResponse writes a generic 404.
func NotFoundResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, &domain.Error{Code: domain.ENOTFOUND, Message: "Kayıt bulunamadı"})
}

// UnauthorizedResponse writes a generic 401.
func UnauthorizedResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, &domain.Error{Code: domain.EUNAUTHORIZED, Message: "Giriş yapmanız gerekiyor"})
}

// ForbiddenResponse writes a generic 403.
func ForbiddenResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, &domain.Error{Code: domain.EFORBIDDEN, Message: "Bu işlem için yetkiniz yok"})
}

// InternalErrorResponse writes a generic 500, hiding the cause.
func InternalErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	ErrorResponse(w, r, domain.Internal(err, "", "internal error"))
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
