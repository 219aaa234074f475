package middleware

import (
	"log/slog"
	"time"

	"estatehub/internal/utils"

	"github.com/gin-gonic/gin"
)

// Logger logs one line per request including request_id when available.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		utils.Logger().LogAttrs(c.Request.Context(), level, "[HTTP] "+c.Request.Method+" "+c.Request.URL.Path,
			slog.String("request_id", GetRequestID(c)),
			slog.Int("status", status),
			slog.Float64("latency_ms", float64(latency.Microseconds())/1000.0),
			slog.String("ip", c.ClientIP()),
		)
	}
}
