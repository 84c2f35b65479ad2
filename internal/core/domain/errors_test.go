package domain

import (
	"errors"
	"testing"
)

func TestWrapErrorKeepsKindAndCause(t *testing.T) {
	cause := errors.New("rate limit exceeded")
	err := WrapError(ErrRateLimited, "input gate", cause)

	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("wrapped error must match its kind")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("wrapped error must match its cause")
	}
	if errors.Is(err, ErrInvalidInput) {
		t.Fatalf("wrapped error must not match other kinds")
	}
}

func TestWrapErrorNil(t *testing.T) {
	if WrapError(ErrTemporary, "op", nil) != nil {
		t.Fatalf("nil cause must wrap to nil")
	}
}

func TestIsKind(t *testing.T) {
	err := WrapError(ErrGenerationExhausted, "model pool", errors.New("all models failed"))
	if !IsKind(err, ErrGenerationExhausted) {
		t.Fatalf("IsKind must unwrap to the kind")
	}
	if IsKind(err, ErrRateLimited) {
		t.Fatalf("IsKind must reject other kinds")
	}
}
