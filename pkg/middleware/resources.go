package middleware

import (
	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/pastevault/pkg/context"
	"github.com/yeisme/pastevault/pkg/internal/storage"
	"github.com/yeisme/pastevault/pkg/scheduler"
)

// ResourcesMiddleware 把存储管理器、调度器与请求级 logger 放入请求上下文.
// 需位于 RequestIDMiddleware 与 TracingMiddleware 之后，logger 才带有请求 ID 与 trace id.
func ResourcesMiddleware(manager *storage.Manager, sched *scheduler.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if manager != nil {
			ctx = ctxPkg.WithStorageManager(ctx, manager)
		}

		if sched != nil {
			ctx = ctxPkg.WithScheduler(ctx, sched)
		}

		ctx = ctxPkg.WithLogger(ctx, *ctxPkg.Logger(ctx))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
