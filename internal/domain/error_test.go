package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil error", nil, ""},
		{"domain error", Invalid("order.cancel", "bad state"), EINVALID},
		{"wrapped domain error", fmt.Errorf("outer: %w", NotFound("order.get", "order", "x")), ENOTFOUND},
		{"plain error", errors.New("boom"), EINTERNAL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.want {
				t.Errorf("ErrorCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorMessage_HidesInternalDetails(t *testing.T) {
	err := Internal(errors.New("pq: connection refused"), "order.create", "failed to save order")
	msg := ErrorMessage(err)
	if msg == "failed to save order" {
		t.Error("internal error message leaked to user")
	}
	if msg == "" {
		t.Error("expected generic user message")
	}
}

func TestErrorProviderCode(t *testing.T) {
	err := &Error{Code: EPAYMENT, Message: "declined", ProviderCode: "12"}
	if got := ErrorProviderCode(err); got != "12" {
		t.Errorf("ErrorProviderCode() = %q, want %q", got, "12")
	}
	if got := ErrorProviderCode(errors.New("plain")); got != "" {
		t.Errorf("ErrorProviderCode(plain) = %q, want empty", got)
	}
}

func TestWrapError(t *testing.T) {
	base := errors.New("row not found")
	wrapped := WrapError(base, ENOTFOUND, "order.get", "order not found")

	if !errors.Is(wrapped, base) {
		t.Error("wrapped error should match base via errors.Is")
	}
	if ErrorCode(wrapped) != ENOTFOUND {
		t.Errorf("code = %q, want %q", ErrorCode(wrapped), ENOTFOUND)
	}
	if WrapError(nil, EINTERNAL, "op", "msg") != nil {
		t.Error("WrapError(nil) should return nil")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("order.guest", "email", "geçerli bir e-posta girin")
	if !IsValidationError(err) {
		t.Fatal("expected validation error")
	}
	fields := GetValidationFields(err)
	if fields["email"] != "geçerli bir e-posta girin" {
		t.Errorf("unexpected field message: %v", fields)
	}
}
