package middleware

import (
	"context"
	"strings"

	"github.com/erp/receivables/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// profilingSkipPrefixes are routes not worth labelling
var profilingSkipPrefixes = []string{"/health", "/swagger"}

// Profiling runs the handler under Pyroscope labels for controller, route and method
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, prefix := range profilingSkipPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		route := c.FullPath()
		labels := telemetry.HTTPRequestLabels(controllerFromRoute(route), route, c.Request.Method)
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// controllerFromRoute returns the first resource segment after the api prefix.
// "/api/v1/saved-views/:id" gives "saved-views".
func controllerFromRoute(route string) string {
	for _, part := range strings.Split(route, "/") {
		if part == "" || part == "api" || isVersionSegment(part) || strings.HasPrefix(part, ":") {
			continue
		}
		return part
	}
	return ""
}

func isVersionSegment(segment string) bool {
	if len(segment) < 2 || (segment[0] != 'v' && segment[0] != 'V') {
		return false
	}
	for i := 1; i < len(segment); i++ {
		if segment[i] < '0' || segment[i] > '9' {
			return false
		}
	}
	return true
}
