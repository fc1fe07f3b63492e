package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const DefaultMaxBodyBytes int64 = 10 << 20

// BodyLimit caps request body size so oversized payloads fail during binding.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
