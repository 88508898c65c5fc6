package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   NotFound("Customer"),
			expected: "NOT_FOUND: Customer not found",
		},
		{
			name:     "with underlying error",
			appErr:   Internal("Failed to debit balance", errors.New("write conflict")),
			expected: "INTERNAL_ERROR: Failed to debit balance (caused by: write conflict)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestConstructors_StatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found", NotFoundWithID("Visit", "abc"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad id"), CodeInvalidInput, http.StatusBadRequest},
		{"unauthorized", Unauthorized("missing token"), CodeUnauthorized, http.StatusUnauthorized},
		{"conflict", Conflict("paid booking"), CodeConflict, http.StatusConflict},
		{"insufficient balance", InsufficientBalance(1000, 1500), CodeInsufficientBalance, http.StatusConflict},
		{"already vip", AlreadyVIP("c1", nil), CodeAlreadyVIP, http.StatusConflict},
		{"timeout", Timeout("slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("mongo"), CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.wantCode)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("status = %d, want %d", tt.err.StatusCode(), tt.wantStatus)
			}
		})
	}
}

func TestInsufficientBalance_Details(t *testing.T) {
	err := InsufficientBalance(1000, 1500)

	if err.Details["current_balance"] != int64(1000) {
		t.Errorf("current_balance = %v, want 1000", err.Details["current_balance"])
	}
	if err.Details["required_amount"] != int64(1500) {
		t.Errorf("required_amount = %v, want 1500", err.Details["required_amount"])
	}
	if !strings.Contains(err.Message, "1000") || !strings.Contains(err.Message, "1500") {
		t.Errorf("message should mention both amounts, got %q", err.Message)
	}
}

func TestIsAppError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("transaction failed: %w", Conflict("booking already paid"))

	if !IsAppError(wrapped) {
		t.Errorf("IsAppError() should see through fmt.Errorf wrapping")
	}
	if IsAppError(errors.New("plain")) {
		t.Errorf("IsAppError() should return false for a plain error")
	}
	if !HasCode(wrapped, CodeConflict) {
		t.Errorf("HasCode() should match the wrapped conflict")
	}
	if HasCode(wrapped, CodeNotFound) {
		t.Errorf("HasCode() should not match a different code")
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NotFound("Customer")
	if AsAppError(appErr) != appErr {
		t.Errorf("AsAppError() should return the same AppError")
	}

	plain := errors.New("socket closed")
	result := AsAppError(plain)
	if result.Code != CodeInternal {
		t.Errorf("AsAppError() should wrap a plain error as internal, got %s", result.Code)
	}
	if result.Err != plain {
		t.Errorf("AsAppError() should keep the original error")
	}
}

func TestAppError_ToJSON(t *testing.T) {
	data := string(InsufficientBalance(0, 200).ToJSON())

	for _, want := range []string{"INSUFFICIENT_BALANCE", "current_balance", "required_amount"} {
		if !strings.Contains(data, want) {
			t.Errorf("ToJSON() = %s, missing %q", data, want)
		}
	}
}
