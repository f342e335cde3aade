package middleware

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/pastevault/pkg/configs"
)

// CORSMiddleware 按 server.cors_origins 放行跨域请求. 粘贴接口不使用 cookie，始终不允许携带凭据.
// 浏览器需要读取 Location 与 Content-Disposition 才能处理创建结果和下载文件名.
func CORSMiddleware(cfg configs.ServerConfig) gin.HandlerFunc {
	conf := cors.Config{
		AllowMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Content-Length", "Authorization",
			"X-Paste-Password", HeaderRequestID,
		},
		ExposeHeaders: []string{"Location", "Content-Disposition", "ETag", "Retry-After", HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}

	if len(cfg.CORSOrigins) == 0 || slices.Contains(cfg.CORSOrigins, "*") {
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = cfg.CORSOrigins
	}

	if cfg.Debug {
		conf.AllowHeaders = append(conf.AllowHeaders, HeaderAdminToken)
	}

	return cors.New(conf)
}
