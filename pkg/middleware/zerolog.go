package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	ctxPkg "github.com/yeisme/pastevault/pkg/context"
)

// GinLoggerMiddleware 每个请求一条访问日志. 5xx 记为 error，4xx 记为 warn，健康检查降为 debug.
// 查询串可能带有 pwd，只记录路径.
func GinLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()

		lvl := zerolog.InfoLevel
		switch {
		case status >= 500:
			lvl = zerolog.ErrorLevel
		case status >= 400:
			lvl = zerolog.WarnLevel
		case strings.Contains(c.FullPath(), "/health"):
			lvl = zerolog.DebugLevel
		}

		ev := ctxPkg.Logger(c.Request.Context()).WithLevel(lvl).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("route", c.FullPath()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP())

		if id := c.Param("id"); id != "" {
			ev = ev.Str("paste", id)
		}

		if len(c.Errors) > 0 {
			ev = ev.Str("error", c.Errors.Last().Error())
		}

		ev.Msg("request")
	}
}
