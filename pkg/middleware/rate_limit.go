package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yeisme/pastevault/pkg/configs"
	"github.com/yeisme/pastevault/pkg/metrics"
)

// visitor 单个客户端的令牌桶.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet 按键维护令牌桶，空闲超过 idle 的条目在下一次清扫时移除.
type limiterSet struct {
	rps   rate.Limit
	burst int
	idle  time.Duration

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

func newLimiterSet(cfg configs.RateLimitConfig) *limiterSet {
	idle := cfg.IdleTTL
	if idle <= 0 {
		idle = configs.DefaultRateLimitIdleTTL
	}

	return &limiterSet{
		rps:       rate.Limit(cfg.RPS),
		burst:     cfg.Burst,
		idle:      idle,
		visitors:  make(map[string]*visitor),
		lastSweep: time.Now(),
	}
}

func (s *limiterSet) get(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) >= s.idle {
		for k, v := range s.visitors {
			if now.Sub(v.lastSeen) >= s.idle {
				delete(s.visitors, k)
			}
		}

		s.lastSweep = now
	}

	v, ok := s.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(s.rps, s.burst)}
		s.visitors[key] = v
	}

	v.lastSeen = now

	return v.limiter
}

// RateLimitMiddleware 限制创建类请求的频率，超限返回 429 与 Retry-After.
//
// Key 取值：global 全局共享一个令牌桶；ip 按客户端 IP；header:X-Name 按请求头，缺失时退回 IP.
func RateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	set := newLimiterSet(cfg)
	keyOf := limitKeyFunc(cfg.Key)

	return func(c *gin.Context) {
		now := time.Now()

		r := set.get(keyOf(c), now).ReserveN(now, 1)
		if delay := r.DelayFrom(now); !r.OK() || delay > 0 {
			r.CancelAt(now)
			metrics.RateLimited.WithLabelValues(c.FullPath()).Inc()

			c.Header("Retry-After", retryAfter(delay, float64(set.rps)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many pastes, please try again later",
				"kind":  "limit_exceeded",
			})

			return
		}

		c.Next()
	}
}

func limitKeyFunc(mode string) func(*gin.Context) string {
	mode = strings.TrimSpace(mode)

	switch {
	case mode == "" || strings.EqualFold(mode, "global"):
		return func(*gin.Context) string { return "" }
	case len(mode) > len("header:") && strings.EqualFold(mode[:len("header:")], "header:"):
		header := mode[len("header:"):]

		return func(c *gin.Context) string {
			if v := c.GetHeader(header); v != "" {
				return "h:" + v
			}

			return c.ClientIP()
		}
	default:
		return func(c *gin.Context) string { return c.ClientIP() }
	}
}

// retryAfter 以秒为单位向上取整，至少 1 秒.
func retryAfter(delay time.Duration, rps float64) string {
	secs := math.Ceil(delay.Seconds())
	if delay <= 0 || math.IsInf(secs, 0) {
		secs = math.Ceil(1 / rps)
	}

	return strconv.Itoa(int(math.Max(1, secs)))
}
