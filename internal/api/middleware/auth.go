// Package middleware provides HTTP middleware for the certvault API.
package middleware

import (
	"net/http"

	"github.com/MacJediWizard/certvault/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ContextKey is the type for context keys used by this package.
type ContextKey string

const (
	// IdentityContextKey is the context key for the validated token identity.
	IdentityContextKey ContextKey = "identity"
	// RequestIDContextKey is the context key for the request correlation id.
	RequestIDContextKey ContextKey = "request_id"
)

// TokenValidator validates bearer access tokens.
type TokenValidator interface {
	Validate(accessToken string) (*auth.Identity, error)
}

// AuthMiddleware returns a Gin middleware that requires a valid bearer access token.
func AuthMiddleware(validator TokenValidator, logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("component", "auth_middleware").Logger()

	return func(c *gin.Context) {
		token := auth.ExtractBearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		identity, err := validator.Validate(token)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("rejected access token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(string(IdentityContextKey), identity)

		log.Debug().
			Int64("user_id", identity.UserID).
			Str("role", string(identity.Role)).
			Str("path", c.Request.URL.Path).
			Msg("authenticated request")

		c.Next()
	}
}

// RequirePermission returns a Gin middleware that aborts with 403 unless the
// authenticated role may perform op. It must run after AuthMiddleware.
func RequirePermission(op auth.Operation, logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("component", "authorization_guard").Logger()

	return func(c *gin.Context) {
		identity := RequireIdentity(c)
		if identity == nil {
			return
		}

		if err := auth.RequirePermission(identity.Role, op); err != nil {
			log.Info().
				Int64("user_id", identity.UserID).
				Str("role", string(identity.Role)).
				Str("operation", string(op)).
				Msg("permission denied")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Next()
	}
}

// GetIdentity retrieves the authenticated identity from the Gin context.
// Returns nil if the request is not authenticated.
func GetIdentity(c *gin.Context) *auth.Identity {
	value, exists := c.Get(string(IdentityContextKey))
	if !exists {
		return nil
	}
	identity, ok := value.(*auth.Identity)
	if !ok {
		return nil
	}
	return identity
}

// RequireIdentity gets the authenticated identity or aborts with 401.
// Use this in handlers that expect AuthMiddleware to have already run.
func RequireIdentity(c *gin.Context) *auth.Identity {
	identity := GetIdentity(c)
	if identity == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return nil
	}
	return identity
}
