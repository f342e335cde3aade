package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultRateLimitEnabled = false
	DefaultRateLimitRPS     = 2.0
	DefaultRateLimitBurst   = 20
	DefaultRateLimitKey     = "ip"
	DefaultRateLimitIdleTTL = 10 * time.Minute
)

// RateLimitConfig 创建接口的令牌桶限流，读取接口不受影响.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"   rule:"gte=0"`
	Burst   int     `mapstructure:"burst" rule:"gte=0"`
	// Key global、ip 或 header:<Name>
	Key string `mapstructure:"key"`
	// IdleTTL 客户端空闲多久后回收其令牌桶
	IdleTTL time.Duration `mapstructure:"idle_ttl"`
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", DefaultRateLimitEnabled)
	v.SetDefault("rate_limit.rps", DefaultRateLimitRPS)
	v.SetDefault("rate_limit.burst", DefaultRateLimitBurst)
	v.SetDefault("rate_limit.key", DefaultRateLimitKey)
	v.SetDefault("rate_limit.idle_ttl", DefaultRateLimitIdleTTL)
}
