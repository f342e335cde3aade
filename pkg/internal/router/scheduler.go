package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/pastevault/pkg/internal/handle"
)

// RegisterSchedulerRoutes 后台任务管理，鉴权由调用方挂在 g 上.
//
//	GET    /scheduler/jobs            任务列表、最近一次结果和排队数
//	POST   /scheduler/jobs/:name/run  立即执行
//	POST   /scheduler/stop            暂停全部任务
//	POST   /scheduler/start
//	DELETE /scheduler/jobs/:id
func RegisterSchedulerRoutes(g *gin.RouterGroup) {
	sg := g.Group("/scheduler")
	sg.GET("/jobs", handle.SchedulerJobs)
	sg.POST("/jobs/:name/run", handle.SchedulerRunJob)
	sg.DELETE("/jobs/:id", handle.SchedulerRemoveJob)
	sg.POST("/stop", handle.SchedulerStopJobs)
	sg.POST("/start", handle.SchedulerStartJobs)
}
