package router

import (
	"net/http"

	"github.com/erp/receivables/internal/infrastructure/config"
	"github.com/erp/receivables/internal/infrastructure/logger"
	"github.com/erp/receivables/internal/infrastructure/telemetry"
	"github.com/erp/receivables/internal/interfaces/http/dto"
	"github.com/erp/receivables/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EngineConfig selects the global middleware chain
type EngineConfig struct {
	ServiceName   string
	Mode          string
	HTTP          config.HTTPConfig
	Tracing       bool
	MeterProvider *telemetry.MeterProvider
}

// NewEngine builds a gin engine with the global middleware chain:
// recovery, request id, request logging, tracing, metrics, CORS, security
// headers and the body limit.
func NewEngine(cfg EngineConfig, log *zap.Logger) (*gin.Engine, error) {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		logger.GinMiddleware(log),
		middleware.Tracing(middleware.TracingConfig{ServiceName: cfg.ServiceName, Enabled: cfg.Tracing}),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(cfg.MeterProvider),
		middleware.CORS(middleware.CORSConfigFrom(cfg.HTTP)),
		middleware.Secure(),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.KindNotFound, dto.ErrCodeRouteNotFound,
			"Route not found", c.GetString(logger.GinRequestIDKey)))
	})
	return engine, nil
}

// APIMiddleware is the chain of the authenticated API group
func APIMiddleware(authenticator middleware.Authenticator, limiter *middleware.RateLimiter, profiling bool) []gin.HandlerFunc {
	chain := []gin.HandlerFunc{
		middleware.Auth(authenticator),
		middleware.SpanAttributes(),
	}
	if limiter != nil {
		chain = append(chain, middleware.RateLimit(limiter))
	}
	return append(chain, middleware.Profiling(profiling))
}
