// Package jobs 负责注册与实现业务定时任务（基于 scheduler）.
//
// 过期清理依赖 KV 的 TTL 与读取时回收，这里只做观测类任务.
package jobs

import (
	"context"
	"errors"
	"fmt"

	ctxPkg "github.com/yeisme/pastevault/pkg/context"
	"github.com/yeisme/pastevault/pkg/internal/service"
	"github.com/yeisme/pastevault/pkg/internal/storage"
	"github.com/yeisme/pastevault/pkg/log"
	"github.com/yeisme/pastevault/pkg/metrics"
	"github.com/yeisme/pastevault/pkg/scheduler"
)

// StatsSource 提供描述符统计.
type StatsSource interface {
	Stats(ctx context.Context) (service.Stats, error)
}

// Prober 探测各存储位置.
type Prober interface {
	HealthCheck(ctx context.Context) map[string]error
}

// RegisterCronJobs 配置业务定时任务：
//   - 每 5 分钟遍历描述符索引，刷新 pastevault_descriptors 指标
//   - 每分钟探测存储位置，刷新 pastevault_storage_up 指标
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager, stats StatsSource) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if mgr == nil {
		return fmt.Errorf("storage manager is nil")
	}

	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)

	if err := sched.AddCron(baseCtx, JobDescriptorStats, CronDescriptorStats, func(ctx context.Context) error {
		return RefreshDescriptorStats(ctx, stats)
	}); err != nil {
		return err
	}

	return sched.AddCron(baseCtx, JobStorageProbe, CronStorageProbe, func(ctx context.Context) error {
		return ProbeStorage(ctx, mgr.GetS3Resolver())
	})
}

// RefreshDescriptorStats 按类型与状态刷新描述符数量. 采集失败时保留上一次的值.
func RefreshDescriptorStats(ctx context.Context, src StatsSource) error {
	st, err := src.Stats(ctx)
	if err != nil {
		return fmt.Errorf("collect descriptor stats: %w", err)
	}

	metrics.Descriptors.Reset()

	for k, n := range st.Counts {
		metrics.Descriptors.WithLabelValues(k.Type, k.State).Set(float64(n))
	}

	l := log.Logger()
	l.Info().
		Str("job", JobDescriptorStats).
		Int64("total", st.Total()).
		Int64("bytes", st.Bytes).
		Int64("protected", st.Protected).
		Int64("skipped", st.Skipped).
		Msg("descriptor stats refreshed")

	return nil
}

// ProbeStorage 探测结果写入 StorageUp，返回不可用位置的错误.
func ProbeStorage(ctx context.Context, p Prober) error {
	var errs []error

	for name, err := range p.HealthCheck(ctx) {
		if err != nil {
			metrics.StorageUp.WithLabelValues(name).Set(0)
			errs = append(errs, fmt.Errorf("location %s: %w", name, err))

			continue
		}

		metrics.StorageUp.WithLabelValues(name).Set(1)
	}

	return errors.Join(errs...)
}
