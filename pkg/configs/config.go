// Package configs 加载 pastevault 的配置：KV、对象存储位置、粘贴生命周期、事件总线等.
//
// 配置来源按优先级：PASTEVAULT_ 前缀的环境变量，config.{yaml,yml,json,toml,env} 文件，默认值.
// 嵌套键用下划线连接，例如 PASTEVAULT_PASTE_MAX_TTL 对应 paste.max_ttl.
//
//	if err := configs.InitConfig("."); err != nil {
//		return err
//	}
//
//	loc, ok := configs.GetConfig().Storage.Location("large")
//
// server.reload_config 打开时监听配置文件，新配置通过校验后整体替换，并依次调用 OnReload 注册的回调.
// 已经按旧配置建立的连接（KV、S3、MQ）不会重建.
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/yeisme/pastevault/pkg/rule"
)

// AppVersion 应用版本号，构建时可通过 -ldflags 覆盖.
var AppVersion = "0.1.0"

// EnvPrefix 环境变量前缀.
const EnvPrefix = "PASTEVAULT"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		Server         ServerConfig         `mapstructure:"server"`          // ServerConfig 服务器配置，端口、调试模式等
		Log            LogConfig            `mapstructure:"log"`             // LogConfig 日志相关配置
		KV             KVConfig             `mapstructure:"kv"`              // KVConfig 描述符索引存储
		DB             DBConfig             `mapstructure:"db"`              // DBConfig 仅 kv.type=sql 时使用
		Storage        StorageConfig        `mapstructure:"storage"`         // StorageConfig 命名的对象存储位置
		Paste          PasteConfig          `mapstructure:"paste"`           // PasteConfig 粘贴生命周期参数
		MQ             MQConfig             `mapstructure:"mq"`              // MQConfig 消息队列配置
		Events         EventsConfig         `mapstructure:"events"`          // EventsConfig 事件发布开关
		Metrics        MetricsConfig        `mapstructure:"metrics"`         // MetricsConfig 监控
		Tracing        TracingConfig        `mapstructure:"tracing"`         // TracingConfig 链路追踪
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`      // RateLimitConfig 创建接口限流
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"` // CircuitBreakerConfig 熔断
		Admin          AdminConfig          `mapstructure:"admin"`           // AdminConfig 管理接口
	}
)

var (
	current  atomic.Pointer[AppConfig]
	appViper *viper.Viper

	hooksMu sync.Mutex
	hooks   []func(*AppConfig)
)

// configExts 目录中按顺序查找 config.<ext>.
var configExts = []string{"yaml", "yml", "json", "toml", "env", "dotenv"}

// InitConfig path 可以是配置文件或目录. 目录中没有配置文件时只使用默认值与环境变量.
func InitConfig(path string) error {
	v := viper.New()
	setAllDefaults(v)

	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(path)
		v.AddConfigPath(filepath.Join(path, "configs"))

		for _, ext := range configExts {
			if f := filepath.Join(path, "config."+ext); fileExists(f) {
				v.SetConfigFile(f)
				break
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return err
	}

	appViper = v
	current.Store(cfg)

	if cfg.Server.ReloadConfig && v.ConfigFileUsed() != "" {
		watch(v)
	}

	return nil
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func decode(v *viper.Viper) (*AppConfig, error) {
	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rule 标签校验之后再检查对象存储位置.
func (c *AppConfig) Validate() error {
	if err := rule.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return c.Storage.validate()
}

type defaulter interface {
	setDefaults(v *viper.Viper)
}

func setAllDefaults(v *viper.Viper) {
	for _, d := range []defaulter{
		&ServerConfig{}, &LogConfig{}, &KVConfig{}, &DBConfig{},
		&StorageConfig{}, &PasteConfig{}, &MQConfig{}, &EventsConfig{},
		&MetricsConfig{}, &TracingConfig{}, &RateLimitConfig{},
		&CircuitBreakerConfig{}, &AdminConfig{},
	} {
		d.setDefaults(v)
	}
}

// watch 日志模块依赖本包，这里只能写 stderr.
func watch(v *viper.Viper) {
	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := decode(v)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: keep previous config, %s rejected: %v\n", e.Name, err)
			return
		}

		current.Store(cfg)
		fmt.Fprintf(os.Stderr, "config: reloaded %s\n", e.Name)

		hooksMu.Lock()
		fns := slices.Clone(hooks)
		hooksMu.Unlock()

		for _, fn := range fns {
			fn(cfg)
		}
	})
	v.WatchConfig()
}

// OnReload 注册热重载回调，在 fsnotify 的 goroutine 中执行.
func OnReload(fn func(*AppConfig)) {
	hooksMu.Lock()
	defer hooksMu.Unlock()

	hooks = append(hooks, fn)
}

// GetConfig 返回当前配置. InitConfig 之前返回零值配置.
func GetConfig() *AppConfig {
	if cfg := current.Load(); cfg != nil {
		return cfg
	}

	return &AppConfig{}
}

// GetViper 未初始化时为 nil.
func GetViper() *viper.Viper {
	return appViper
}
