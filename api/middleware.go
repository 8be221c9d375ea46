package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// UserIDHeader carries the authenticated user id set by the gateway.
const UserIDHeader = "X-User-ID"

const userIDKey = "user_id"

// Identity rejects requests without a caller id and stores it on the context.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Code: codeUnauthenticated, Error: "missing " + UserIDHeader + " header"})
			return
		}
		c.Set(userIDKey, id)
		c.Next()
	}
}

func callerID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// AccessLog writes one structured line per request. Errors attached to the
// context with c.Error are logged with the line.
func AccessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"user_id", callerID(c),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
			logger.Error("request failed", attrs...)
			return
		}
		logger.Info("request", attrs...)
	}
}
