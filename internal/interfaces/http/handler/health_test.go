package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	var pingErr error
	h := NewHealthHandler(pingFunc(func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return pingErr
	}), "1.2.3")
	r := gin.New()
	r.GET("/health", h.Health)

	w := doRequest(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"up"`)
	assert.Contains(t, w.Body.String(), `"version":"1.2.3"`)

	pingErr = errors.New("connection refused")
	w = doRequest(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"down"`)
	assert.NotContains(t, w.Body.String(), "refused")
}
