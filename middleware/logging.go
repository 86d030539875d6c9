package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/calebchiang/repcoach_server/logger"
	"github.com/calebchiang/repcoach_server/metrics"
)

// RequestLogger logs and counts every request by route template, so ids in
// paths do not explode label cardinality.
func RequestLogger(log *logger.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(elapsed.Seconds())
		log.LogHTTPRequest(c.Request.Method, route, status, elapsed)
	}
}
