package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/infrastructure/auth"
	"github.com/erp/receivables/internal/infrastructure/config"
	"github.com/erp/receivables/internal/infrastructure/logger"
	"github.com/erp/receivables/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(t *testing.T, svc *auth.JWTService, seen *shared.Identity) *gin.Engine {
	t.Helper()
	router := gin.New()
	router.Use(Auth(svc))
	router.GET("/me", func(c *gin.Context) {
		identity, ok := shared.IdentityFromContext(c.Request.Context())
		require.True(t, ok)
		*seen = identity
		assert.Equal(t, identity.UserID.String(), logger.GetUserID(c.Request.Context()))
		fromGin, ok := GetIdentity(c)
		assert.True(t, ok)
		assert.Equal(t, identity, fromGin)
		c.Status(http.StatusOK)
	})
	return router
}

func TestAuth(t *testing.T) {
	svc := auth.NewJWTService(
		config.JWTConfig{Secret: "test-secret-that-is-long-enough-0123456789", Issuer: "receivables"},
		config.IdentityConfig{SelfOnlyRoles: []string{"sales"}},
	)
	var seen shared.Identity
	router := newAuthRouter(t, svc, &seen)

	t.Run("valid token attaches identity", func(t *testing.T) {
		userID := uuid.New()
		token, _, err := svc.GenerateToken(userID, "sales", time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, userID, seen.UserID)
		assert.Equal(t, "sales", seen.Role)
		assert.True(t, seen.SelfOnly)
	})

	t.Run("finance role is unscoped", func(t *testing.T) {
		token, _, err := svc.GenerateToken(uuid.New(), "finance", time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.False(t, seen.SelfOnly)
		assert.Nil(t, seen.Scope())
	})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, dto.ErrCodeUnauthenticated, resp.Error.Code)
			assert.Equal(t, dto.KindPermission, resp.Error.Kind)
		})
	}
}

func TestAuth_ExpiredToken(t *testing.T) {
	svc := auth.NewJWTService(config.JWTConfig{Secret: "test-secret-that-is-long-enough-0123456789"}, config.IdentityConfig{})
	token, _, err := svc.GenerateToken(uuid.New(), "finance", -time.Minute)
	require.NoError(t, err)

	var seen shared.Identity
	router := newAuthRouter(t, svc, &seen)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token has expired")
}
