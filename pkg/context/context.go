// Package context 在请求上下文中传递存储管理器、调度器、请求 ID 和带请求字段的 logger.
package context

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/pastevault/pkg/internal/storage"
	kvc "github.com/yeisme/pastevault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/pastevault/pkg/internal/storage/mq"
	s3c "github.com/yeisme/pastevault/pkg/internal/storage/s3"
	"github.com/yeisme/pastevault/pkg/log"
	"github.com/yeisme/pastevault/pkg/scheduler"
)

type key int

const (
	managerKey key = iota
	schedulerKey
	requestIDKey
	loggerKey
)

// WithStorageManager 放入存储管理器.
func WithStorageManager(ctx context.Context, mgr *storage.Manager) context.Context {
	return context.WithValue(ctx, managerKey, mgr)
}

// GetManager 取存储管理器，不存在时为 nil.
func GetManager(ctx context.Context) *storage.Manager {
	mgr, _ := ctx.Value(managerKey).(*storage.Manager)
	return mgr
}

func GetS3Resolver(ctx context.Context) *s3c.Resolver {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetS3Resolver()
	}

	return nil
}

func GetMQClient(ctx context.Context) *mqc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetMQClient()
	}

	return nil
}

func GetKVClient(ctx context.Context) *kvc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetKVClient()
	}

	return nil
}

// WithScheduler 放入调度器，供管理接口使用.
func WithScheduler(ctx context.Context, s *scheduler.Scheduler) context.Context {
	return context.WithValue(ctx, schedulerKey, s)
}

// GetScheduler 取调度器，不存在时为 nil.
func GetScheduler(ctx context.Context) *scheduler.Scheduler {
	s, _ := ctx.Value(schedulerKey).(*scheduler.Scheduler)
	return s
}

// WithRequestID 记录请求 ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID 读取请求 ID，不存在时为空.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithLogger 放入请求级 logger.
func WithLogger(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// Logger 返回请求级 logger. 上下文中没有时基于全局 logger 构造，
// 附带请求 ID 以及正在记录的 span 的 trace_id 和 span_id.
func Logger(ctx context.Context) *zerolog.Logger {
	if l, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return &l
	}

	c := log.Logger().With()
	if id := GetRequestID(ctx); id != "" {
		c = c.Str("request_id", id)
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		c = c.Str("trace_id", sc.TraceID().String()).Str("span_id", sc.SpanID().String())
	}

	l := c.Logger()

	return &l
}
