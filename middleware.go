package main

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// requestLogger logs every /api/ request with method, path, status and
// latency as structured fields, matching the teacher's request
// logging but through gin's middleware chain and slog instead of a
// hand-rolled ResponseWriter wrapper and fmt-style log lines.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		if len(path) >= 5 && path[:5] == "/api/" {
			slog.Info("request",
				"method", c.Request.Method,
				"path", path,
				"status", c.Writer.Status(),
				"duration", time.Since(start),
			)
		}
	}
}
