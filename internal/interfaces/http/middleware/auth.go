package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/infrastructure/auth"
	"github.com/erp/receivables/internal/infrastructure/logger"
	"github.com/erp/receivables/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Gin context keys set by Auth
const (
	IdentityKey = "identity"
	UserIDKey   = "user_id"
	RoleKey     = "role"
)

// Authenticator resolves a bearer token into a caller identity
type Authenticator interface {
	Authenticate(token string) (shared.Identity, error)
}

// Auth requires a valid bearer token and attaches the caller identity to the
// request context. Every downstream service reads the identity from there.
func Auth(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortWithError(c, http.StatusUnauthorized, dto.KindPermission, dto.ErrCodeUnauthenticated,
				"Authorization header with a bearer token is required")
			return
		}

		identity, err := authenticator.Authenticate(token)
		if err != nil {
			logger.GetGinLogger(c).Debug("Token rejected", zap.Error(err))
			message := "Invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				message = "Token has expired"
			}
			abortWithError(c, http.StatusUnauthorized, dto.KindPermission, dto.ErrCodeUnauthenticated, message)
			return
		}

		userID := identity.UserID.String()
		c.Set(IdentityKey, identity)
		c.Set(UserIDKey, userID)
		c.Set(RoleKey, identity.Role)

		ctx := shared.WithIdentity(c.Request.Context(), identity)
		ctx = logger.WithUser(ctx, userID, identity.Role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetIdentity returns the identity set by Auth
func GetIdentity(c *gin.Context) (shared.Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return shared.Identity{}, false
	}
	identity, ok := v.(shared.Identity)
	return identity, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
