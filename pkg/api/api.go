// Package api 组装 HTTP 接口：版本化的管理接口、根路径的内容读取与管理员路由.
package api

import (
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/pastevault/pkg/cache"
	"github.com/yeisme/pastevault/pkg/configs"
	"github.com/yeisme/pastevault/pkg/internal/handle"
	"github.com/yeisme/pastevault/pkg/internal/router"
	"github.com/yeisme/pastevault/pkg/middleware"
)

const (
	locationsCacheTTL = time.Minute
	qrCacheTTL        = 5 * time.Minute
)

// Options 路由依赖.
type Options struct {
	Pastes *handle.PasteHandlers
	// Cache 响应缓存，为空时不缓存
	Cache     *cache.Cache
	RateLimit configs.RateLimitConfig
	Admin     configs.AdminConfig
	// Server Debug 打开时挂载 /swagger
	Server configs.ServerConfig
}

// RegisterGroup 注册全部路由到传入的 gin 引擎.
//
//	/api/v1/pastes...     粘贴管理
//	/api/v1/locations     存储位置限制
//	/api/v1/health/...    健康检查
//	/admin/scheduler/...  调度器管理（X-Admin-Token）
//	/admin/pastes/stats   描述符统计（X-Admin-Token）
//	/swagger/*any         接口文档，仅调试模式
//	/:id, /:id/:filename  内容读取
func RegisterGroup(e *gin.Engine, opts Options) *gin.Engine {
	// 二维码已是压缩格式
	v1 := e.Group("/api/v1", gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{`/qr$`})))

	var (
		qr        gin.HandlerFunc
		locations []gin.HandlerFunc
	)

	if opts.Cache != nil {
		qr = middleware.ResponseCache(opts.Cache, middleware.CacheTTL(qrCacheTTL), middleware.CacheVary("X-Forwarded-Proto"))
		locations = append(locations, middleware.ResponseCache(opts.Cache, middleware.CacheTTL(locationsCacheTTL)))
	}

	router.RegisterPasteRoutes(v1, opts.Pastes, qr, middleware.RateLimitMiddleware(opts.RateLimit))
	router.RegisterLocationRoutes(v1, opts.Pastes, locations...)
	router.RegisterHealthCheckRoute(v1)

	admin := e.Group("/admin", middleware.AdminTokenMiddleware(opts.Admin))
	router.RegisterSchedulerRoutes(admin)
	router.RegisterAdminRoutes(admin, opts.Pastes)

	router.RegisterSwaggerRoute(e, opts.Server)
	router.RegisterReadRoutes(e, opts.Pastes)

	return e
}
