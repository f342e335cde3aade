package configs

import (
	"time"

	"github.com/spf13/viper"
)

// MetricsConfig Metrics相关配置.
type MetricsConfig struct {
	Enabled         bool          `mapstructure:"enabled"`          // 是否启用Metrics
	Pprof           bool          `mapstructure:"pprof"`            // 是否暴露 /debug/pprof
	ServiceName     string        `mapstructure:"service_name"`     // 服务名称
	ServiceVersion  string        `mapstructure:"service_version"`  // 服务版本
	CollectInterval time.Duration `mapstructure:"collect_interval"` // 描述符统计任务的刷新间隔
	RuntimeMetrics  bool          `mapstructure:"runtime_metrics"`  // 是否收集运行时指标
}

// setDefaults 设置Metrics配置的默认值.
func (c *MetricsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.pprof", false)
	v.SetDefault("metrics.service_name", "pastevault")
	v.SetDefault("metrics.service_version", AppVersion)
	v.SetDefault("metrics.collect_interval", "1m")
	v.SetDefault("metrics.runtime_metrics", true)
}
