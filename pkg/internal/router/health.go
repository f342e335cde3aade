package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/pastevault/pkg/internal/handle"
)

// RegisterHealthCheckRoute 注册探针.
//
//	GET /health       全部依赖
//	GET /health/live  仅进程存活
//	GET /health/{kv,s3,mq}
func RegisterHealthCheckRoute(g *gin.RouterGroup) {
	g.GET("/health", handle.Health)

	h := g.Group("/health")
	h.GET("/live", handle.Live)
	h.GET("/kv", handle.HealthKV)
	h.GET("/s3", handle.HealthS3)
	h.GET("/mq", handle.HealthMQ)
}
