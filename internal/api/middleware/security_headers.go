package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// cspAPI is a strict Content-Security-Policy for JSON-only responses.
const cspAPI = "default-src 'none'; frame-ancestors 'none'"

// cspDocs allows the Swagger UI bundle, which relies on inline scripts and styles.
const cspDocs = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; frame-ancestors 'none'"

// DocsPathPrefix is where the OpenAPI UI is mounted.
const DocsPathPrefix = "/api/docs/"

// SecurityHeaders returns a middleware that sets security-related HTTP response headers.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Cache-Control", "no-store")

		if strings.HasPrefix(c.Request.URL.Path, DocsPathPrefix) {
			c.Header("Content-Security-Policy", cspDocs)
		} else {
			c.Header("Content-Security-Policy", cspAPI)
		}

		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
