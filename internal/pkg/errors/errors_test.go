package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without wrapped error",
			err:  New("EVENT_NOT_FOUND", "event not found", http.StatusNotFound),
			want: "EVENT_NOT_FOUND: event not found",
		},
		{
			name: "with wrapped error",
			err:  Wrap(fmt.Errorf("db error"), "DB_ERROR", "database failure", http.StatusInternalServerError),
			want: "DB_ERROR: database failure: db error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap(inner, "CODE", "msg", 500)

	if !errors.Is(appErr, inner) {
		t.Error("errors.Is should match inner error")
	}
}

func TestNotFoundMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("lookup: %w", ErrEventNotFoundf(42))
	if !errors.Is(err, ErrNotFound) {
		t.Fatal("errors.Is(err, ErrNotFound) = false, want true")
	}
	appErr, ok := IsAppError(err)
	if !ok {
		t.Fatal("IsAppError should return true for wrapped AppError")
	}
	if appErr.Params["id"] != "42" {
		t.Errorf("Params[id] = %v, want 42", appErr.Params["id"])
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"NotFound", NotFound("NF", "not found"), KindNotFound},
		{"BadRequest", BadRequest("BR", "bad request"), KindBadRequest},
		{"Validation", ErrValidationf([]FieldError{{Field: "title", Code: "required"}}), KindBadRequest},
		{"Unauthorized", Unauthorized("UA", "unauthorized"), KindUnauthorized},
		{"Forbidden", Forbidden("FB", "forbidden"), KindForbidden},
		{"Conflict", Conflict("CF", "conflict"), KindConflict},
		{"RateLimited", ErrRateLimitedf(), KindTooMany},
		{"Internal", Internal("IE", "internal"), KindInternal},
		{"VideoProcessing", ErrVideoProcessingf(fmt.Errorf("llm down")), KindInternal},
		{"Plain", fmt.Errorf("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithFieldErrors_IgnoresEmpty(t *testing.T) {
	err := BadRequest("BR", "bad").WithFieldErrors(nil)
	if err.FieldErrors != nil {
		t.Errorf("FieldErrors = %#v, want nil", err.FieldErrors)
	}
}

func TestErrVideoProcessing_UsesCauseMessage(t *testing.T) {
	err := ErrVideoProcessingf(fmt.Errorf("no response from model"))
	if err.Message != "no response from model" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("HTTPStatus = %d, want 500", err.HTTPStatus)
	}
}
