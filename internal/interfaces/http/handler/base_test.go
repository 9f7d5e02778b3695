package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/infrastructure/logger"
	"github.com/erp/receivables/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestBaseHandler_HandleErrorLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := &BaseHandler{}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(logger.GinMiddleware(zap.New(core)))
	r.GET("/fail/:kind", func(c *gin.Context) {
		switch c.Param("kind") {
		case "transient":
			h.HandleError(c, shared.NewTransientError("Failed to save receipt", errors.New("deadlock")))
		case "validation":
			h.HandleError(c, shared.NewValidationError("INVALID_AMOUNT", "Amount must be positive"))
		default:
			h.HandleError(c, errors.New("boom"))
		}
	})

	req := httptest.NewRequest(http.MethodGet, "/fail/transient", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-77")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	failed := logs.FilterMessage("Request failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.ErrorLevel, failed[0].Level)
	assert.Equal(t, "req-77", failed[0].ContextMap()["request_id"])
	assert.Equal(t, "TRANSIENT_FAILURE", failed[0].ContextMap()["error_code"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail/validation", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1, logs.FilterMessage("Request rejected").Len())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail/other", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
	assert.Equal(t, 2, logs.FilterMessage("Request failed").Len())
}

func TestBaseHandler_HandleErrorNil(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	(&BaseHandler{}).HandleError(c, nil)
	assert.Empty(t, c.Errors)
}
