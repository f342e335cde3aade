package handle

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	ctxPkg "github.com/yeisme/pastevault/pkg/context"
	"github.com/yeisme/pastevault/pkg/internal/types"
)

const healthTimeout = 2 * time.Second

var errNotInitialized = errors.New("not initialized")

// check 单个组件的检查. disabled 为 true 表示该组件未启用，不影响整体状态.
type check func(ctx context.Context) (detail map[string]string, disabled bool, err error)

func kvCheck(ctx context.Context) (map[string]string, bool, error) {
	kvc := ctxPkg.GetKVClient(ctx)
	if kvc == nil {
		return nil, false, errNotInitialized
	}

	return map[string]string{"type": string(kvc.Type)}, false, kvc.HealthCheck(ctx)
}

func s3Check(ctx context.Context) (map[string]string, bool, error) {
	resolver := ctxPkg.GetS3Resolver(ctx)
	if resolver == nil {
		return nil, false, errNotInitialized
	}

	var errs []error

	detail := map[string]string{}
	for name, err := range resolver.HealthCheck(ctx) {
		detail[name] = "ok"
		if err != nil {
			detail[name] = err.Error()
			errs = append(errs, err)
		}
	}

	return detail, false, errors.Join(errs...)
}

// mqCheck 未配置事件时 MQ 可以不存在.
func mqCheck(ctx context.Context) (map[string]string, bool, error) {
	mqc := ctxPkg.GetMQClient(ctx)
	if mqc == nil {
		return nil, true, nil
	}

	return nil, false, mqc.HealthCheck(ctx)
}

var checks = map[string]check{"kv": kvCheck, "s3": s3Check, "mq": mqCheck}

func runCheck(ctx context.Context, name string, fn check) types.ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	detail, disabled, err := fn(ctx)

	h := types.ComponentHealth{Component: name, Status: types.HealthOK, Details: detail}

	switch {
	case disabled:
		h.Status = types.HealthDisabled
	case err != nil:
		h.Status = types.HealthUnhealthy
		h.Error = err.Error()
	}

	return h
}

func renderHealth(c *gin.Context, h types.ComponentHealth) {
	status := http.StatusOK
	if h.Status == types.HealthUnhealthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, h)
}

func HealthKV(c *gin.Context) { renderHealth(c, runCheck(c.Request.Context(), "kv", kvCheck)) }

// HealthS3 任一存储位置不可用即为 503.
func HealthS3(c *gin.Context) { renderHealth(c, runCheck(c.Request.Context(), "s3", s3Check)) }

func HealthMQ(c *gin.Context) { renderHealth(c, runCheck(c.Request.Context(), "mq", mqCheck)) }

// Health 并发检查全部组件，任一组件异常时返回 503.
func Health(c *gin.Context) {
	var (
		mu  sync.Mutex
		out = types.HealthReport{Status: types.HealthOK, Components: map[string]types.ComponentHealth{}}
	)

	var g errgroup.Group

	for name, fn := range checks {
		g.Go(func() error {
			h := runCheck(c.Request.Context(), name, fn)

			mu.Lock()
			defer mu.Unlock()

			out.Components[name] = h
			if h.Status == types.HealthUnhealthy {
				out.Status = types.HealthUnhealthy
			}

			return nil
		})
	}

	_ = g.Wait()

	status := http.StatusOK
	if out.Status == types.HealthUnhealthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, out)
}

// Live 进程存活探针，不访问任何依赖.
func Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": types.HealthOK})
}
