package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RequestObserver records served requests.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, d time.Duration)
}

// Metrics returns a middleware that reports each request to observer,
// labelled by route template so ids do not explode label cardinality.
func Metrics(observer RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		observer.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
