// Package router 管理路由配置，将处理器绑定到 gin 引擎.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/pastevault/pkg/internal/handle"
)

// RegisterPasteRoutes 注册粘贴管理接口. create 为创建接口额外使用的中间件（例如限流）.
//
//	POST   /pastes               -> Create
//	POST   /pastes/large         -> CreateLarge
//	GET    /pastes/:id           -> Info
//	PATCH  /pastes/:id           -> Update
//	DELETE /pastes/:id           -> Delete
//	POST   /pastes/:id/complete  -> Complete
//	GET    /pastes/:id/qr        -> QR
func RegisterPasteRoutes(g *gin.RouterGroup, h *handle.PasteHandlers, qr gin.HandlerFunc, create ...gin.HandlerFunc) {
	pastes := g.Group("/pastes")
	{
		pastes.POST("", chain(create, h.Create)...)
		pastes.POST("/large", chain(create, h.CreateLarge)...)

		single := pastes.Group("/:id")
		{
			single.GET("", h.Info)
			single.PATCH("", h.Update)
			single.DELETE("", h.Delete)
			single.POST("/complete", h.Complete)

			if qr != nil {
				single.GET("/qr", qr, h.QR)
			} else {
				single.GET("/qr", h.QR)
			}
		}
	}
}

// RegisterReadRoutes 在根路径注册内容读取，文件名段只影响下载文件名.
func RegisterReadRoutes(r gin.IRoutes, h *handle.PasteHandlers) {
	r.GET("/:id", h.Read)
	r.GET("/:id/:filename", h.Read)
}

// RegisterLocationRoutes 注册存储位置限制查询.
func RegisterLocationRoutes(g *gin.RouterGroup, h *handle.PasteHandlers, mw ...gin.HandlerFunc) {
	g.GET("/locations", chain(mw, h.ListLocations)...)
}

// chain 复制中间件切片后追加处理器，避免多个路由共享底层数组.
func chain(mw []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(mw)+1)
	out = append(out, mw...)

	return append(out, h)
}

// RegisterAdminRoutes 注册管理端粘贴接口.
func RegisterAdminRoutes(g *gin.RouterGroup, h *handle.PasteHandlers) {
	g.GET("/pastes/stats", h.Stats)
}
