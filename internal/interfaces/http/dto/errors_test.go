package dto

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/erp/receivables/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind shared.ErrorKind
		want int
	}{
		{shared.KindValidation, http.StatusBadRequest},
		{shared.KindNotFound, http.StatusNotFound},
		{shared.KindPermission, http.StatusForbidden},
		{shared.KindTransient, http.StatusServiceUnavailable},
		{shared.KindConfig, http.StatusInternalServerError},
		{shared.KindConflict, http.StatusConflict},
		{shared.KindInvalidState, http.StatusUnprocessableEntity},
		{"unknown", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.kind))
		})
	}
}

func TestFromError_DomainError(t *testing.T) {
	err := fmt.Errorf("apply: %w", shared.NewValidationError("INVALID_AMOUNT", "Amount must be positive"))

	status, resp := FromError(err, "req-1")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, KindValidation, resp.Error.Kind)
	assert.Equal(t, "INVALID_AMOUNT", resp.Error.Code)
	assert.Equal(t, "Amount must be positive", resp.Error.Message)
	assert.Equal(t, "req-1", resp.Error.RequestID)
}

func TestFromError_TransientHidesCause(t *testing.T) {
	err := shared.NewTransientError("Failed to load installment", errors.New("dial tcp: refused"))

	status, resp := FromError(err, "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "Failed to load installment", resp.Error.Message)
}

func TestFromError_Unknown(t *testing.T) {
	status, resp := FromError(errors.New("secret detail"), "req-2")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, ErrCodeInternal, resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, "secret")
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "r", []ValidationDetail{{Field: "reason", Message: "This field is required"}})
	assert.Equal(t, KindValidation, resp.Error.Kind)
	assert.Equal(t, ErrCodeValidationFailed, resp.Error.Code)
	assert.Len(t, resp.Error.Details, 1)
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]int{1, 2}, 12, 2, 2)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(12), resp.Meta.Total)
}
