package router

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/infrastructure/config"
	"github.com/erp/receivables/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type whoAmI struct{}

func (whoAmI) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/whoami", func(c *gin.Context) {
		identity, _ := shared.IdentityFromContext(c.Request.Context())
		c.String(http.StatusOK, identity.Role)
	})
}

type staticAuth struct{}

func (staticAuth) Authenticate(token string) (shared.Identity, error) {
	if token != "good" {
		return shared.Identity{}, errors.New("bad token")
	}
	return shared.Identity{UserID: uuid.New(), Role: "finance"}, nil
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
	assert.Empty(t, r.registrars)

	r.Register(whoAmI{}, whoAmI{})
	assert.Len(t, r.registrars, 2)
}

func TestEngineAndAPIGroup(t *testing.T) {
	engine, err := NewEngine(EngineConfig{
		ServiceName: "receivables-test",
		HTTP:        config.HTTPConfig{MaxBodySize: 1 << 20},
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	limiter := middleware.NewRateLimiter(100, time.Minute)
	t.Cleanup(limiter.Stop)
	NewRouter(engine, WithGroupMiddleware(APIMiddleware(staticAuth{}, limiter, false)...)).
		Register(whoAmI{}).
		Setup()

	t.Run("authenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "finance", w.Body.String())
		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
		assert.Equal(t, "99", w.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("anonymous", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown route", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "ROUTE_NOT_FOUND")
	})
}
