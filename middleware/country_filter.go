package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arkapradana/arenahub/config"
	"github.com/arkapradana/arenahub/utils"
)

// CountryFilter enforces region locking for tournaments using ISO country
// codes resolved from the client IP. Deny rules take priority over allow
// rules; an empty allow list means every region is allowed. Lookups are
// best-effort: when the country cannot be resolved the request passes.
func CountryFilter() gin.HandlerFunc {
	cfg := config.Get()
	allow := toSet(cfg.AllowedCountry)
	deny := toSet(cfg.DenyCountry)

	return func(c *gin.Context) {
		if len(allow) == 0 && len(deny) == 0 {
			c.Next()
			return
		}

		ip := effectiveClientIP(c)
		if ip == "" || utils.IsPrivateIP(ip) {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		country, err := utils.GetIPCountry(ctx, ip)
		cancel()
		if err != nil || country == "" {
			c.Next()
			return
		}

		if _, blocked := deny[country]; blocked {
			respondCountryBlocked(c, ip, country)
			return
		}
		if len(allow) > 0 {
			if _, ok := allow[country]; !ok {
				respondCountryBlocked(c, ip, country)
				return
			}
		}
		c.Next()
	}
}

func toSet(list []string) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, item := range list {
		if s := strings.ToUpper(strings.TrimSpace(item)); s != "" {
			set[s] = struct{}{}
		}
	}
	return set
}

// effectiveClientIP prefers forwarded headers set by the reverse proxy and
// falls back to the socket peer.
func effectiveClientIP(c *gin.Context) string {
	if v := c.GetHeader("X-Forwarded-For"); v != "" {
		parts := strings.Split(v, ",")
		if len(parts) > 0 {
			if ip := stripPort(strings.TrimSpace(parts[0])); ip != "" {
				return ip
			}
		}
	}
	if v := c.GetHeader("X-Real-IP"); v != "" {
		return stripPort(strings.TrimSpace(v))
	}
	return stripPort(c.Request.RemoteAddr)
}

func stripPort(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

func respondCountryBlocked(c *gin.Context, ip string, country string) {
	if utils.Sugar != nil {
		utils.Sugar.Infow("region blocked", "ip", ip, "country", country, "path", c.Request.URL.Path)
	}
	utils.Error(c, http.StatusForbidden, 40302, "service not available in your region")
	c.Abort()
}
