// Package scheduler 在 gocron/v2 之上维护按名称索引的周期任务，并记录每个任务的运行状态.
package scheduler

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yeisme/pastevault/pkg/log"
	"github.com/yeisme/pastevault/pkg/metrics"
)

// JobStatus 任务状态.
type JobStatus string

const (
	StatusScheduled JobStatus = "scheduled"
	StatusRunning   JobStatus = "running"
	StatusError     JobStatus = "error"
)

// ErrJobNotFound 任务不存在.
var ErrJobNotFound = errors.New("job not found")

// Task 周期任务. 返回的错误记录在任务状态中，不影响下一次调度.
type Task func(ctx context.Context) error

// JobInfo 任务快照，供管理接口展示.
type JobInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CronExpr    string    `json:"cron_expr"`
	NextRun     time.Time `json:"next_run"`
	LastRun     time.Time `json:"last_run,omitzero"`
	LastSuccess time.Time `json:"last_success,omitzero"`
	Runs        int64     `json:"runs"`
	Status      JobStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type entry struct {
	job  gocron.Job
	info JobInfo
}

// Scheduler 按名称管理 cron 任务. 同名任务不会并发执行.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *zerolog.Logger

	mu      sync.RWMutex
	entries map[string]*entry
}

// Option 配置 Scheduler.
type Option func(*options)

type options struct {
	location *time.Location
	logger   *zerolog.Logger
}

// WithLocation cron 表达式使用的时区，默认 UTC.
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.location = loc }
}

// WithLogger 指定日志，默认使用全局日志.
func WithLogger(l *zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// NewScheduler 创建调度器，需调用 Start 后任务才会运行.
func NewScheduler(opts ...Option) (*Scheduler, error) {
	o := options{location: time.UTC}
	for _, fn := range opts {
		fn(&o)
	}

	if o.logger == nil {
		o.logger = log.Logger()
	}

	s, err := gocron.NewScheduler(gocron.WithLocation(o.location))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		logger:    o.logger,
		entries:   make(map[string]*entry),
	}, nil
}

// AddCron 注册名为 name 的 cron 任务，ctx 作为每次执行的上下文.
// 上一次执行未结束时跳过本次触发.
func (s *Scheduler) AddCron(ctx context.Context, name, cronExpr string, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	j, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func(ctx context.Context) { s.run(ctx, name, task) }, ctx),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("add job %s: %w", name, err)
	}

	s.entries[name] = &entry{
		job: j,
		info: JobInfo{
			ID:        j.ID().String(),
			Name:      name,
			CronExpr:  cronExpr,
			Status:    StatusScheduled,
			CreatedAt: time.Now().UTC(),
		},
	}

	s.logger.Info().Str("job", name).Str("cron", cronExpr).Msg("cron job added")

	return nil
}

// run 执行任务并记录状态，任务中的 panic 视为失败.
func (s *Scheduler) run(ctx context.Context, name string, task Task) {
	start := time.Now()
	s.update(name, func(info *JobInfo) {
		info.Status = StatusRunning
		info.LastRun = start.UTC()
		info.Runs++
	})

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()

		return task(ctx)
	}()

	l := s.logger.With().Str("job", name).Dur("took", time.Since(start)).Logger()

	if err != nil {
		metrics.JobRuns.WithLabelValues(name, "error").Inc()
		l.Error().Err(err).Msg("job failed")
		s.update(name, func(info *JobInfo) {
			info.Status = StatusError
			info.Error = err.Error()
		})

		return
	}

	metrics.JobRuns.WithLabelValues(name, "ok").Inc()
	l.Debug().Msg("job finished")
	s.update(name, func(info *JobInfo) {
		info.Status = StatusScheduled
		info.Error = ""
		info.LastSuccess = time.Now().UTC()
	})
}

func (s *Scheduler) update(name string, fn func(*JobInfo)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[name]; ok {
		fn(&e.info)
	}
}

// RunNow 立即触发一次任务，不影响原有调度.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	e, ok := s.entries[name]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}

	return e.job.RunNow()
}

// RemoveJob 按 gocron 分配的 id 删除任务.
func (s *Scheduler) RemoveJob(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, e := range s.entries {
		if e.job.ID() != id {
			continue
		}

		if err := s.scheduler.RemoveJob(id); err != nil {
			return err
		}

		delete(s.entries, name)
		s.logger.Info().Str("job", name).Msg("cron job removed")

		return nil
	}

	return fmt.Errorf("%w: %s", ErrJobNotFound, id)
}

// JobInfos 按名称排序的任务快照.
func (s *Scheduler) JobInfos() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.entries))

	for _, e := range s.entries {
		info := e.info
		if next, err := e.job.NextRun(); err == nil {
			info.NextRun = next
		}

		out = append(out, info)
	}

	slices.SortFunc(out, func(a, b JobInfo) int { return cmp.Compare(a.Name, b.Name) })

	return out
}

// Start 开始调度.
func (s *Scheduler) Start() {
	s.logger.Info().Int("jobs", len(s.JobInfos())).Msg("scheduler started")
	s.scheduler.Start()
}

// StopJobs 停止调度但保留任务，可再次 Start.
func (s *Scheduler) StopJobs() error {
	return s.scheduler.StopJobs()
}

// JobsWaitingInQueue 等待执行的任务数.
func (s *Scheduler) JobsWaitingInQueue() int {
	return s.scheduler.JobsWaitingInQueue()
}

// Shutdown 停止调度并等待运行中的任务结束.
func (s *Scheduler) Shutdown() error {
	return s.scheduler.Shutdown()
}
