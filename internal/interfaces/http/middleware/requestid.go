package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/atelier/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
)

// RequestID tags every request with an ID: the caller's X-Request-ID when
// present, otherwise a generated one. The ID is echoed in the response header
// and placed both in the gin context and the request context so repository
// logging can correlate statements with requests.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = newRequestID()
		}

		c.Set("request_id", requestID)
		c.Request = c.Request.WithContext(
			logger.ContextWithRequestID(c.Request.Context(), requestID))
		c.Writer.Header().Set("X-Request-ID", requestID)

		c.Next()
	}
}

func newRequestID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing is extraordinary; a timestamp keeps requests
		// distinguishable in logs
		return time.Now().Format("20060102150405.000000000")
	}
	return hex.EncodeToString(buf[:])
}
