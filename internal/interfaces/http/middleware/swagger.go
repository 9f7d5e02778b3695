package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/erp/receivables/internal/infrastructure/config"
	"github.com/erp/receivables/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SwaggerProtection guards the API docs route.
// Disabled docs answer 404; AllowedIPs accepts single addresses and CIDRs;
// RequireAuth chains the given auth middleware.
func SwaggerProtection(cfg config.SwaggerConfig, authMiddleware gin.HandlerFunc) gin.HandlerFunc {
	var (
		allowedIPs  []net.IP
		allowedNets []*net.IPNet
	)
	for _, entry := range cfg.AllowedIPs {
		if strings.Contains(entry, "/") {
			if _, network, err := net.ParseCIDR(entry); err == nil {
				allowedNets = append(allowedNets, network)
			}
			continue
		}
		if ip := net.ParseIP(entry); ip != nil {
			allowedIPs = append(allowedIPs, ip)
		}
	}

	return func(c *gin.Context) {
		if !cfg.Enabled {
			abortWithError(c, http.StatusNotFound, dto.KindNotFound, dto.ErrCodeRouteNotFound,
				"API documentation is not available")
			return
		}
		if len(cfg.AllowedIPs) > 0 && !isIPAllowed(net.ParseIP(c.ClientIP()), allowedIPs, allowedNets) {
			abortWithError(c, http.StatusForbidden, dto.KindPermission, dto.ErrCodeForbidden,
				"Access to API documentation is restricted")
			return
		}
		if cfg.RequireAuth && authMiddleware != nil {
			authMiddleware(c)
			if c.IsAborted() {
				return
			}
		}
		c.Next()
	}
}

func isIPAllowed(ip net.IP, allowedIPs []net.IP, allowedNets []*net.IPNet) bool {
	if ip == nil {
		return false
	}
	for _, allowed := range allowedIPs {
		if allowed.Equal(ip) {
			return true
		}
	}
	for _, network := range allowedNets {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
