package negotiation

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"not found", NewNotFound("offer %s not found", "abc"), KindNotFound},
		{"unauthorized", NewUnauthorized("not yours"), KindUnauthorized},
		{"invalid state", NewInvalidState("already resolved"), KindInvalidState},
		{"validation", NewValidation("negative amount"), KindValidation},
		{"wrapped", fmt.Errorf("handler: %w", NewNotFound("missing")), KindNotFound},
		{"outside taxonomy", errors.New("boom"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSentinelMatching(t *testing.T) {
	err := NewInvalidState("offer %s is already %s", "abc", "accepted")

	if !errors.Is(err, ErrInvalidState) {
		t.Error("invalid state error does not match its sentinel")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("invalid state error matches the wrong sentinel")
	}

	wrapped := fmt.Errorf("transition failed: %w", err)
	if !errors.Is(wrapped, ErrInvalidState) {
		t.Error("wrapped error does not match its sentinel")
	}
}

func TestErrorMessage(t *testing.T) {
	err := NewNotFound("offer %s not found", "abc")
	if err.Error() != "offer abc not found" {
		t.Errorf("Error() = %q", err.Error())
	}

	inner := errors.New("disk full")
	withCause := &Error{Kind: KindInvalidState, Message: "cannot resolve", Err: inner}
	if withCause.Error() != "cannot resolve: disk full" {
		t.Errorf("Error() = %q", withCause.Error())
	}
	if !errors.Is(withCause, inner) {
		t.Error("cause not reachable through Unwrap")
	}
}
