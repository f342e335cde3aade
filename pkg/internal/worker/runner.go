// Package worker 执行不阻塞请求的后台写入，例如访问计数和预签名缓存持久化.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/yeisme/pastevault/pkg/metrics"
)

// Dispatcher 调度一个命名任务. 任务的失败只记录日志，不回传给调用方.
type Dispatcher interface {
	Go(ctx context.Context, name string, fn func(ctx context.Context) error)
}

// Pool 有并发上限的后台执行器.
//
// 任务使用与请求解耦的上下文（保留值，不继承取消），并受 timeout 限制.
// 达到并发上限时 Go 阻塞等待空位，请求上下文取消则放弃该任务.
type Pool struct {
	sem     *semaphore.Weighted
	timeout time.Duration
	logger  *zerolog.Logger
	wg      sync.WaitGroup
}

// NewPool 创建执行器. concurrency<=0 时为 1.
func NewPool(concurrency int, timeout time.Duration, logger *zerolog.Logger) *Pool {
	if concurrency <= 0 {
		concurrency = 1
	}

	return &Pool{
		sem:     semaphore.NewWeighted(int64(concurrency)),
		timeout: timeout,
		logger:  logger,
	}
}

// Go 调度任务.
func (p *Pool) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		metrics.AsyncTasks.WithLabelValues(name, "dropped").Inc()
		p.logger.Warn().Str("task", name).Err(err).Msg("async task dropped")

		return
	}

	p.wg.Add(1)

	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)

		runCtx := context.WithoutCancel(ctx)

		if p.timeout > 0 {
			var cancel context.CancelFunc

			runCtx, cancel = context.WithTimeout(runCtx, p.timeout)
			defer cancel()
		}

		run(runCtx, name, fn, p.logger)
	}()
}

// Wait 等待所有已调度任务结束，用于优雅关闭和测试.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Inline 在调用方 goroutine 中同步执行任务.
type Inline struct {
	Logger *zerolog.Logger
}

// Go 同步执行.
func (i Inline) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	logger := i.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	run(ctx, name, fn, logger)
}

func run(ctx context.Context, name string, fn func(ctx context.Context) error, logger *zerolog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			metrics.AsyncTasks.WithLabelValues(name, "panic").Inc()
			logger.Error().Str("task", name).Interface("panic", r).Msg("async task panicked")
		}
	}()

	if err := fn(ctx); err != nil {
		metrics.AsyncTasks.WithLabelValues(name, "error").Inc()
		logger.Warn().Str("task", name).Err(err).Msg("async task failed")

		return
	}

	metrics.AsyncTasks.WithLabelValues(name, "ok").Inc()
}
