package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Kinds(t *testing.T) {
	tests := []struct {
		name string
		err  *DomainError
		kind ErrorKind
	}{
		{"validation", NewValidationError("INVALID_AMOUNT", "amount must be positive"), KindValidation},
		{"not found", NewNotFoundError("INSTALLMENT_NOT_FOUND", "installment not found"), KindNotFound},
		{"permission", NewPermissionError("FORBIDDEN", "no"), KindPermission},
		{"transient", NewTransientError("db down", errors.New("dial tcp")), KindTransient},
		{"config", NewConfigError("RATE_MISSING", "no rate"), KindConfig},
		{"inferred not found", ErrNotFound, KindNotFound},
		{"inferred conflict", ErrConcurrencyConflict, KindConflict},
		{"inferred default", ErrInvalidInput, KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.err.Kind)
			assert.True(t, IsKind(tt.err, tt.kind))
		})
	}
}

func TestDomainError_UnwrapAndIs(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewTransientError("failed to save receipt", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to save receipt: connection reset", err.Error())

	wrapped := fmt.Errorf("apply: %w", ErrNotFound)
	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, ErrorKind(""), KindOf(cause))
}

func TestAsTransient(t *testing.T) {
	assert.NoError(t, AsTransient("x", nil))

	err := AsTransient("load installment", errors.New("timeout"))
	assert.True(t, IsKind(err, KindTransient))

	// domain errors pass through untouched
	nf := NewNotFoundError("INSTALLMENT_NOT_FOUND", "missing")
	assert.Same(t, nf, AsTransient("load installment", nf))
}
