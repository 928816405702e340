// Package requestid tags every request with a correlation ID. Incoming
// X-Request-ID headers are trusted and propagated; otherwise a UUID is minted.
package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// Header carries the correlation ID on requests and responses.
	Header = "X-Request-ID"

	contextKey = "request_id"
)

// Middleware stores the request ID in the gin context and echoes it on the
// response so clients can correlate logs.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(contextKey, id)
		c.Writer.Header().Set(Header, id)
		c.Next()
	}
}

// Value returns the request ID for the current request, or "" when the
// middleware did not run.
func Value(c *gin.Context) string {
	id, _ := c.Value(contextKey).(string)
	return id
}
