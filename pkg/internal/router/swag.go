package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/yeisme/pastevault/docs"
	"github.com/yeisme/pastevault/pkg/configs"
)

// RegisterSwaggerRoute 调试模式下挂载接口文档 /swagger/index.html.
func RegisterSwaggerRoute(r gin.IRoutes, cfg configs.ServerConfig) {
	if !cfg.Debug {
		return
	}

	docs.SwaggerInfo.Host = cfg.Addr()

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
