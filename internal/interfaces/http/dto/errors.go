package dto

import (
	"errors"
	"net/http"

	"github.com/erp/receivables/internal/domain/shared"
)

// Error kinds as rendered on the wire
const (
	KindValidation   = string(shared.KindValidation)
	KindNotFound     = string(shared.KindNotFound)
	KindPermission   = string(shared.KindPermission)
	KindTransient    = string(shared.KindTransient)
	KindConfig       = string(shared.KindConfig)
	KindConflict     = string(shared.KindConflict)
	KindInvalidState = string(shared.KindInvalidState)
)

// Transport-level error codes. Domain codes come from shared.DomainError.
const (
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeInvalidJSON      = "INVALID_JSON"
	ErrCodeInvalidID        = "INVALID_ID"
	ErrCodeUnauthenticated  = "UNAUTHENTICATED"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeRequestTooLarge  = "REQUEST_TOO_LARGE"
	ErrCodeRouteNotFound    = "ROUTE_NOT_FOUND"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeTimeout          = "REQUEST_TIMEOUT"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

var kindStatus = map[shared.ErrorKind]int{
	shared.KindValidation:   http.StatusBadRequest,
	shared.KindNotFound:     http.StatusNotFound,
	shared.KindPermission:   http.StatusForbidden,
	shared.KindTransient:    http.StatusServiceUnavailable,
	shared.KindConfig:       http.StatusInternalServerError,
	shared.KindConflict:     http.StatusConflict,
	shared.KindInvalidState: http.StatusUnprocessableEntity,
}

// HTTPStatus returns the status code for an error kind
func HTTPStatus(kind shared.ErrorKind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FromError maps err to a status code and an error envelope.
// Errors that are not DomainErrors never leak their message.
func FromError(err error, requestID string) (int, Response) {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return HTTPStatus(de.Kind), NewErrorResponse(string(de.Kind), de.Code, de.Message, requestID)
	}
	return http.StatusInternalServerError,
		NewErrorResponse(KindTransient, ErrCodeInternal, "An internal error occurred", requestID)
}
