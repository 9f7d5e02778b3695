package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/receivables/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestControllerFromRoute(t *testing.T) {
	tests := map[string]string{
		"/api/v1/saved-views/:id":                     "saved-views",
		"/api/v1/dashboard/contracts/:id/installments": "dashboard",
		"/api/v2/receipts":                            "receipts",
		"/health":                                     "health",
		"":                                            "",
		"/api/v1/:id":                                 "",
	}
	for route, want := range tests {
		assert.Equal(t, want, controllerFromRoute(route), route)
	}
}

func TestProfiling_PassesThrough(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		router := gin.New()
		router.Use(Profiling(enabled))
		router.GET("/api/v1/receipts/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
		router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

		for _, path := range []string{"/api/v1/receipts/1", "/health"} {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, w.Code)
		}
	}
}

func TestHTTPMetrics_DisabledIsPassThrough(t *testing.T) {
	router := gin.New()
	router.Use(HTTPMetrics(nil))
	router.Use(HTTPMetrics(&telemetry.MeterProvider{}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
}
