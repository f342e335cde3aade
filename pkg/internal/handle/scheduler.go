package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	ctxPkg "github.com/yeisme/pastevault/pkg/context"
	"github.com/yeisme/pastevault/pkg/scheduler"
)

// withScheduler 调度器未注入时返回 503；fn 返回的 ErrJobNotFound 映射为 404.
func withScheduler(fn func(c *gin.Context, s *scheduler.Scheduler) (int, any, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := ctxPkg.GetScheduler(c.Request.Context())
		if s == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler not running", "kind": "unavailable"})
			return
		}

		status, body, err := fn(c, s)

		switch {
		case errors.Is(err, scheduler.ErrJobNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "kind": "not_found"})
		case err != nil && status >= http.StatusBadRequest:
			c.JSON(status, gin.H{"error": err.Error()})
		case err != nil:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		default:
			c.JSON(status, body)
		}
	}
}

// SchedulerJobs 任务列表及最近一次运行结果.
var SchedulerJobs = withScheduler(func(_ *gin.Context, s *scheduler.Scheduler) (int, any, error) {
	return http.StatusOK, gin.H{"jobs": s.JobInfos(), "waiting": s.JobsWaitingInQueue()}, nil
})

// SchedulerRunJob 异步触发，结果通过任务列表查看.
var SchedulerRunJob = withScheduler(func(c *gin.Context, s *scheduler.Scheduler) (int, any, error) {
	name := c.Param("name")
	if err := s.RunNow(name); err != nil {
		return 0, nil, err
	}

	return http.StatusAccepted, gin.H{"triggered": name}, nil
})

var SchedulerStopJobs = withScheduler(func(_ *gin.Context, s *scheduler.Scheduler) (int, any, error) {
	if err := s.StopJobs(); err != nil {
		return 0, nil, err
	}

	return http.StatusOK, gin.H{"running": false}, nil
})

// SchedulerStartJobs 恢复 stop 之后的调度.
var SchedulerStartJobs = withScheduler(func(_ *gin.Context, s *scheduler.Scheduler) (int, any, error) {
	s.Start()

	return http.StatusOK, gin.H{"running": true}, nil
})

// SchedulerRemoveJob id 为任务列表中的 gocron 任务 id.
var SchedulerRemoveJob = withScheduler(func(c *gin.Context, s *scheduler.Scheduler) (int, any, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return http.StatusBadRequest, nil, errors.New("invalid job id")
	}

	if err := s.RemoveJob(id); err != nil {
		return 0, nil, err
	}

	return http.StatusOK, gin.H{"removed": id.String()}, nil
})
