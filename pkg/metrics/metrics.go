// Package metrics 提供 Prometheus 指标.
//
//	if err := metrics.InitMetrics(cfg.Metrics); err != nil {
//		log.Fatal(err)
//	}
//
//	metrics.PasteOperations.WithLabelValues("read", "ok").Inc()
//
// gorm 插件与 watermill 指标注册在默认注册表，/metrics 同时导出两者.
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 自动注册pprof端点
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/pastevault/pkg/configs"
)

// 全局指标变量.
var (
	// RequestCounter endpoint 为路由模板，未匹配的请求记为 unmatched.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pastevault",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route template and status class.",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pastevault",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	// ResponseBytes 大文件代理读取会落在最高的桶里.
	ResponseBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pastevault",
			Subsystem: "http",
			Name:      "response_bytes",
			Help:      "HTTP response body size.",
			Buckets:   prometheus.ExponentialBuckets(256, 8, 8),
		},
		[]string{"endpoint"},
	)

	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pastevault",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "HTTP requests currently being served.",
		},
	)

	// PasteOperations 粘贴操作结果计数，result 为 ok 或错误类别.
	PasteOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pastevault",
			Name:      "paste_operations_total",
			Help:      "Paste lifecycle operations by result",
		},
		[]string{"op", "result"},
	)

	// PasteBytes 上传内容大小.
	PasteBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pastevault",
			Name:      "paste_bytes",
			Help:      "Size of stored paste content",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 10),
		},
		[]string{"type"},
	)

	// PresignCache 预签名 URL 缓存命中情况.
	PresignCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pastevault",
			Name:      "presign_cache_total",
			Help:      "Presigned download URL cache lookups",
		},
		[]string{"result"},
	)

	// AsyncTasks 后台写入任务结果.
	AsyncTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pastevault",
			Name:      "async_tasks_total",
			Help:      "Fire-and-forget background writes by result",
		},
		[]string{"task", "result"},
	)

	// Descriptors 描述符数量，由定时任务刷新.
	Descriptors = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pastevault",
			Name:      "descriptors",
			Help:      "Indexed paste descriptors by type and state",
		},
		[]string{"type", "state"},
	)

	// StorageUp 存储位置探活结果，1 为可用.
	StorageUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pastevault",
			Name:      "storage_up",
			Help:      "Whether a storage location answered the last probe",
		},
		[]string{"location"},
	)

	// JobRuns 定时任务执行结果.
	JobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pastevault",
			Name:      "job_runs_total",
			Help:      "Scheduled job executions by result",
		},
		[]string{"job", "result"},
	)

	// RateLimited 被限流拒绝的请求.
	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pastevault",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the create rate limiter",
		},
		[]string{"route"},
	)

	// BreakerState 熔断器状态：0 关闭、1 半开、2 打开.
	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pastevault",
			Name:      "breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"breaker"},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()
	initOnce sync.Once
)

// InitMetrics 初始化Metrics.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	initOnce.Do(func() {
		if config.RuntimeMetrics {
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
		}

		registry.MustRegister(
			RequestCounter, RequestDuration, ResponseBytes, RequestsInFlight,
			PasteOperations, PasteBytes, PresignCache, AsyncTasks,
			Descriptors, StorageUp, JobRuns, RateLimited, BreakerState,
		)
	})

	return nil
}

// StartMetricsServer 在 engine 上挂载 /metrics 与可选的 pprof.
func StartMetricsServer(config configs.MetricsConfig, engine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	gatherers := prometheus.Gatherers{registry, prometheus.DefaultGatherer}
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})))

	if config.Pprof {
		engine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}

	return nil
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}
