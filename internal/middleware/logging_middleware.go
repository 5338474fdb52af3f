package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/annel0/tilecity/internal/logging"
)

// RequestLogger логирует каждый HTTP-запрос: метод, путь, статус и длительность.
// Каждому запросу присваивается trace-id, который возвращается клиенту
// в заголовке X-Trace-Id для сопоставления с логами.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		traceID := c.GetHeader("X-Trace-Id")
		if traceID == "" {
			traceID = uuid.NewString()
		}
		c.Set("trace_id", traceID)
		c.Writer.Header().Set("X-Trace-Id", traceID)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if status >= 500 {
			logging.Error("HTTP %s %s -> %d (%v) trace=%s", c.Request.Method, c.Request.URL.Path, status, latency, traceID)
		} else if status >= 400 {
			logging.Warn("HTTP %s %s -> %d (%v) trace=%s", c.Request.Method, c.Request.URL.Path, status, latency, traceID)
		} else {
			logging.Info("HTTP %s %s -> %d (%v) trace=%s", c.Request.Method, c.Request.URL.Path, status, latency, traceID)
		}
	}
}
