package middleware

import (
	"strconv"
	"time"

	"palmera/metrics"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RequestLogger 记录每个请求并对慢请求告警，同时上报耗时指标
func RequestLogger(log zerolog.Logger, slow time.Duration) gin.HandlerFunc {
	if slow <= 0 {
		slow = 200 * time.Millisecond
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Observe(latency.Seconds())

		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case latency > slow:
			ev = log.Warn().Bool("slow", true)
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Msg("请求")
	}
}
