package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request correlation id.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLength bounds client supplied ids before they reach the logs.
const maxRequestIDLength = 64

// RequestID returns a middleware that propagates or generates a correlation id.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		c.Set(string(RequestIDContextKey), id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
