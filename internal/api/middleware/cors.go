package middleware

import (
	"net/http"
	"strings"

	"github.com/MacJediWizard/certvault/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CORS returns a middleware that handles Cross-Origin Resource Sharing.
// An empty allowedOrigins list allows every origin outside production and
// no cross-origin browser access in production.
func CORS(allowedOrigins []string, env config.Environment, logger zerolog.Logger) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0 && env != config.EnvProduction
	if len(allowedOrigins) == 0 {
		if allowAll {
			logger.Warn().Msg("CORS_ORIGINS is empty, all origins are allowed (not suitable for production)")
		} else {
			logger.Warn().Msg("CORS_ORIGINS is empty in production, cross-origin requests are refused")
		}
	}

	originSet := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		originSet[strings.ToLower(origin)] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := allowAll
		if !allowed && origin != "" {
			_, allowed = originSet[strings.ToLower(origin)]
		}

		if allowed && origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Expose-Headers", "X-Request-ID")
			c.Header("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
