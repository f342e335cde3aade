package configs

import (
	"time"

	"github.com/spf13/viper"
)

// 支持的 span 导出器.
const (
	TracingExporterOTLPHTTP = "otlp-http"
	TracingExporterOTLPGRPC = "otlp-grpc"
	TracingExporterZipkin   = "zipkin"
)

// TracingConfig OpenTelemetry 追踪.
type TracingConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"    rule:"required"`
	ServiceVersion string `mapstructure:"service_version"`
	ExporterType   string `mapstructure:"exporter_type"   rule:"oneof=otlp-http otlp-grpc zipkin"`
	// Endpoint otlp-http 与 zipkin 为 URL，otlp-grpc 为 host:port
	Endpoint string `mapstructure:"endpoint" rule:"required_if=Enabled true"`
	// SampleRate 根 span 采样率，已采样的父 span 始终延续
	SampleRate     float64           `mapstructure:"sample_rate"     rule:"gte=0,lte=1"`
	BatchTimeout   time.Duration     `mapstructure:"batch_timeout"`
	MaxBatchSize   int               `mapstructure:"max_batch_size"  rule:"gte=0"`
	MaxQueueSize   int               `mapstructure:"max_queue_size"  rule:"gte=0"`
	ResourceLabels map[string]string `mapstructure:"resource_labels"`
}

func (c *TracingConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "pastevault")
	v.SetDefault("tracing.service_version", AppVersion)
	v.SetDefault("tracing.exporter_type", TracingExporterOTLPHTTP)
	v.SetDefault("tracing.endpoint", "http://localhost:4318")
	v.SetDefault("tracing.sample_rate", 1.0)
	v.SetDefault("tracing.batch_timeout", 5*time.Second)
	v.SetDefault("tracing.max_batch_size", 512)
	v.SetDefault("tracing.max_queue_size", 2048)
}
