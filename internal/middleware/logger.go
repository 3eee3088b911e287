package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"learninghouse/console/internal/guard"
)

// Logger writes one access log line per request, tagged with the session
// role the request was served under. Health checks only log at debug.
func Logger(log zerolog.Logger, roles guard.RoleReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		role := roles.Role()

		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		case c.FullPath() == "/api/healthz":
			event = log.Debug()
		}

		event.
			Str("method", c.Request.Method).
			Str("route", c.FullPath()).
			Str("path", c.Request.URL.Path).
			Str("client_ip", c.ClientIP()).
			Str("role", role.String()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("request_id", c.GetString(RequestIDKey)).
			Msg("http request")
	}
}
