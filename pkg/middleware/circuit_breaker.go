package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"

	"github.com/yeisme/pastevault/pkg/configs"
	ctxPkg "github.com/yeisme/pastevault/pkg/context"
	"github.com/yeisme/pastevault/pkg/metrics"
)

// errServerStatus 5xx 响应在熔断器中记为失败.
var errServerStatus = errors.New("server error status")

// CircuitBreakerMiddleware 按路由分组熔断：/api、/admin 与根路径的内容读取各用一个熔断器，
// 一组持续 5xx 时不影响其他组. 打开时返回 503 并通过 Retry-After 提示半开时间.
func CircuitBreakerMiddleware(cfg configs.CircuitBreakerConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	var (
		mu       sync.Mutex
		breakers = map[string]*gobreaker.CircuitBreaker{}
	)

	get := func(group string) *gobreaker.CircuitBreaker {
		mu.Lock()
		defer mu.Unlock()

		if cb, ok := breakers[group]; ok {
			return cb
		}

		cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "http:" + group,
			MaxRequests: cfg.MaxRequestsInHalf,
			Interval:    cfg.Interval(),
			Timeout:     cfg.Timeout(),
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return cfg.ShouldTrip(counts.Requests, counts.TotalFailures)
			},
			// 客户端断开不算服务端故障
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			},
		})
		breakers[group] = cb

		return cb
	}

	retry := strconv.Itoa(max(1, cfg.TimeoutSeconds))

	return func(c *gin.Context) {
		cb := get(routeGroup(c.Request.URL.Path))

		_, err := cb.Execute(func() (any, error) {
			c.Next()

			if c.Writer.Status() >= http.StatusInternalServerError {
				return nil, errServerStatus
			}

			return nil, c.Request.Context().Err()
		})

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			ctxPkg.Logger(c.Request.Context()).Warn().Str("breaker", cb.Name()).Msg("request rejected by open breaker")
			c.Header("Retry-After", retry)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable"})
		}
	}
}

func routeGroup(path string) string {
	switch seg, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/"); seg {
	case "api", "admin", "metrics":
		return seg
	default:
		return "read"
	}
}
