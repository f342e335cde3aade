package configs

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultPort        = 8080
	DefaultHost        = "0.0.0.0"
	DefaultMaxBodySize = 32 << 20
)

// ServerConfig HTTP 服务.
type ServerConfig struct {
	Port int    `mapstructure:"port" rule:"min=1,max=65535"`
	Host string `mapstructure:"host" rule:"ip"`
	// ReloadConfig 监听配置文件变化并重新加载
	ReloadConfig bool `mapstructure:"reload_config"`
	Debug        bool `mapstructure:"debug"`

	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" rule:"gt=0"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"        rule:"gte=0"`
	// ShutdownTimeout 收到退出信号后等待进行中请求与后台写入的时间
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" rule:"gt=0"`

	// MaxBodySize 直接创建接口的请求体上限（字节），更大的内容走预签名上传
	MaxBodySize int64 `mapstructure:"max_body_size" rule:"min=0"`
	// TrustedProxies 为空时不信任任何代理，ClientIP 取连接地址
	TrustedProxies []string `mapstructure:"trusted_proxies"`
	// CORSOrigins 允许的跨域来源，包含 * 时允许任意来源
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// Addr 监听地址.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s *ServerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.host", DefaultHost)
	v.SetDefault("server.reload_config", true)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 2*time.Minute)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.max_body_size", DefaultMaxBodySize)
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("server.cors_origins", []string{"*"})
}
