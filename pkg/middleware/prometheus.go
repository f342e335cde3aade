package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/pastevault/pkg/metrics"
)

// PrometheusMiddleware 以路由模板作为 endpoint 标签，粘贴 ID 不会进入指标.
// status 按 2xx/3xx/4xx/5xx 归类.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.RequestsInFlight.Inc()
		defer metrics.RequestsInFlight.Dec()

		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		class := strconv.Itoa(c.Writer.Status()/100) + "xx"

		metrics.RequestCounter.WithLabelValues(c.Request.Method, endpoint, class).Inc()
		metrics.RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())

		if n := c.Writer.Size(); n > 0 {
			metrics.ResponseBytes.WithLabelValues(endpoint).Observe(float64(n))
		}
	}
}
