package configs

import (
	"time"

	"github.com/spf13/viper"
)

// CircuitBreakerConfig 熔断阈值. HTTP 中间件与每个存储位置各自使用独立的熔断器，共用这组阈值.
type CircuitBreakerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// ObjectStore 为每个存储位置启用熔断，与 Enabled 相互独立
	ObjectStore bool `mapstructure:"object_store"`
	// FailureRate 统计窗口内失败比例达到该值时打开
	FailureRate float64 `mapstructure:"failure_rate" rule:"gt=0,lte=1"`
	// MinRequests 窗口内请求数不足时不打开
	MinRequests     uint32 `mapstructure:"min_requests"`
	IntervalSeconds int    `mapstructure:"interval_seconds" rule:"gte=0"`
	// TimeoutSeconds 打开后多久进入半开
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"      rule:"gt=0"`
	MaxRequestsInHalf uint32 `mapstructure:"max_requests_in_half"`
}

// Interval 统计窗口，0 表示不清零.
func (c CircuitBreakerConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Timeout 打开状态持续时间.
func (c CircuitBreakerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ShouldTrip 根据窗口内的请求数与失败数判断是否打开.
func (c CircuitBreakerConfig) ShouldTrip(requests, failures uint32) bool {
	if requests == 0 || requests < c.MinRequests {
		return false
	}

	return float64(failures)/float64(requests) >= c.FailureRate
}

func (c *CircuitBreakerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("circuit_breaker.enabled", false)
	v.SetDefault("circuit_breaker.object_store", true)
	v.SetDefault("circuit_breaker.failure_rate", 0.5)
	v.SetDefault("circuit_breaker.min_requests", 20)
	v.SetDefault("circuit_breaker.interval_seconds", 60)
	v.SetDefault("circuit_breaker.timeout_seconds", 30)
	v.SetDefault("circuit_breaker.max_requests_in_half", 5)
}
