// Package app 提供应用程序的初始化和配置功能.
package app

import (
	contextPkg "context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/pastevault/pkg/api"
	"github.com/yeisme/pastevault/pkg/cache"
	"github.com/yeisme/pastevault/pkg/configs"
	"github.com/yeisme/pastevault/pkg/context"
	"github.com/yeisme/pastevault/pkg/internal/handle"
	"github.com/yeisme/pastevault/pkg/internal/jobs"
	"github.com/yeisme/pastevault/pkg/internal/service"
	"github.com/yeisme/pastevault/pkg/internal/storage"
	"github.com/yeisme/pastevault/pkg/internal/worker"
	"github.com/yeisme/pastevault/pkg/log"
	"github.com/yeisme/pastevault/pkg/metrics"
	"github.com/yeisme/pastevault/pkg/middleware"
	"github.com/yeisme/pastevault/pkg/scheduler"
	"github.com/yeisme/pastevault/pkg/tracing"
)

// httpCachePrefix 响应缓存在 KV 中的键前缀，与描述符前缀分开.
const httpCachePrefix = "http.v1."

type App struct {
	Engine *gin.Engine
	config *configs.AppConfig

	manager   *storage.Manager
	scheduler *scheduler.Scheduler
	pool      *worker.Pool
}

// NewApp 加载配置并初始化存储、引擎、定时任务与路由.
func NewApp(configPath string) (*App, error) {
	ctx := contextPkg.Background()

	// 初始化配置
	if err := configs.InitConfig(configPath); err != nil {
		return nil, fmt.Errorf("init config: %w", err)
	}

	config := configs.GetConfig()

	// 初始化追踪
	if err := tracing.InitTracer(ctx, config.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	// 初始化监控
	if err := metrics.InitMetrics(config.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	manager, err := storage.Init(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	a := &App{config: config, manager: manager}

	ctx = context.WithStorageManager(ctx, manager)

	var async worker.Dispatcher = worker.Inline{Logger: l}
	if config.Paste.AsyncWrites {
		a.pool = worker.NewPool(config.Paste.AsyncConcurrency, config.Paste.AsyncTimeout, l)
		async = a.pool
	}

	svc, err := service.NewPasteServiceFromContext(ctx, config, async)
	if err != nil {
		_ = manager.Close()
		return nil, err
	}

	if a.scheduler, err = scheduler.NewScheduler(); err != nil {
		_ = manager.Close()
		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	if err := jobs.RegisterCronJobs(a.scheduler, manager, svc); err != nil {
		l.Warn().Err(err).Msg("register cron jobs failed")
	}

	a.Engine = newEngine(config, manager, a.scheduler, svc)

	return a, nil
}

// newEngine 中间件顺序：恢复、请求 ID、日志、CORS、追踪、指标、熔断、依赖注入.
func newEngine(config *configs.AppConfig, manager *storage.Manager, sched *scheduler.Scheduler, svc *service.PasteService) *gin.Engine {
	engine := gin.New()

	if err := engine.SetTrustedProxies(config.Server.TrustedProxies); err != nil {
		log.Logger().Warn().Err(err).Msg("invalid trusted proxies, trusting none")
		_ = engine.SetTrustedProxies(nil)
	}

	engine.MaxMultipartMemory = 8 << 20

	engine.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(config.Server),
		middleware.TracingMiddleware(),
	)

	if config.Metrics.Enabled {
		engine.Use(middleware.PrometheusMiddleware())
		_ = metrics.StartMetricsServer(config.Metrics, engine)
	}

	engine.Use(
		middleware.CircuitBreakerMiddleware(config.CircuitBreaker),
		middleware.ResourcesMiddleware(manager, sched),
	)

	api.RegisterGroup(engine, api.Options{
		Pastes:    handle.NewPasteHandlers(svc, manager.GetS3Resolver(), config.Server),
		Cache:     cache.NewCache(manager.GetKVClient(), httpCachePrefix),
		RateLimit: config.RateLimit,
		Admin:     config.Admin,
		Server:    config.Server,
	})

	return engine
}

// Run 启动 HTTP 服务与调度器，收到 SIGINT/SIGTERM 后依次停止接收请求、
// 等待后台写入完成、停止调度器并关闭存储.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(contextPkg.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l := log.Logger()

	srv := &http.Server{
		Addr:              a.config.Server.Addr(),
		Handler:           a.Engine,
		ReadHeaderTimeout: a.config.Server.ReadHeaderTimeout,
		IdleTimeout:       a.config.Server.IdleTimeout,
	}

	a.scheduler.Start()

	errCh := make(chan error, 1)

	go func() {
		l.Info().Str("addr", srv.Addr).Str("version", configs.AppVersion).Msg("pastevault listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	var runErr error

	select {
	case <-ctx.Done():
		l.Info().Msg("shutting down")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := contextPkg.WithTimeout(contextPkg.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("http server shutdown failed")
	}

	if a.pool != nil {
		a.pool.Wait()
	}

	if err := a.scheduler.Shutdown(); err != nil {
		l.Error().Err(err).Msg("scheduler shutdown failed")
	}

	if err := tracing.ShutdownTracer(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("tracer shutdown failed")
	}

	return errors.Join(runErr, a.manager.Close())
}
