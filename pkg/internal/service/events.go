package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/pastevault/pkg/configs"
	ctxPkg "github.com/yeisme/pastevault/pkg/context"
	"github.com/yeisme/pastevault/pkg/internal/model"
	"github.com/yeisme/pastevault/pkg/internal/worker"
	"github.com/yeisme/pastevault/pkg/metrics"
	"github.com/yeisme/pastevault/pkg/queue"
	"github.com/yeisme/pastevault/pkg/tracing"
)

const producer = "pastevault"

// emitter 发布粘贴事件. nil 表示事件关闭，所有方法都可以在 nil 上调用.
type emitter struct {
	pub   queue.Publisher
	cfg   configs.PasteEventsConfig
	async worker.Dispatcher
}

func (e *emitter) created(ctx context.Context, d *model.PasteDescriptor) {
	if e != nil && e.cfg.Created {
		e.publish(ctx, queue.TopicPasteCreated, queue.PastePayload{Paste: pasteRef(d)})
	}
}

func (e *emitter) completed(ctx context.Context, d *model.PasteDescriptor) {
	if e != nil && e.cfg.Completed {
		e.publish(ctx, queue.TopicPasteCompleted, queue.PastePayload{Paste: pasteRef(d)})
	}
}

func (e *emitter) accessed(ctx context.Context, d *model.PasteDescriptor) {
	if e != nil && e.cfg.Accessed {
		e.publish(ctx, queue.TopicPasteAccessed, queue.PastePayload{Paste: pasteRef(d), AccessCount: d.AccessCount})
	}
}

func (e *emitter) updated(ctx context.Context, d *model.PasteDescriptor, fields []string) {
	if e != nil && e.cfg.Updated {
		e.publish(ctx, queue.TopicPasteUpdated, queue.PastePayload{Paste: pasteRef(d), Fields: fields})
	}
}

func (e *emitter) deleted(ctx context.Context, d *model.PasteDescriptor) {
	if e != nil && e.cfg.Deleted {
		e.publish(ctx, queue.TopicPasteDeleted, queue.PastePayload{Paste: pasteRef(d)})
	}
}

func (e *emitter) reaped(ctx context.Context, d *model.PasteDescriptor, reason string) {
	if e != nil && e.cfg.Reaped {
		e.publish(ctx, queue.TopicPasteReaped, queue.PastePayload{Paste: pasteRef(d), Reason: reason})
	}
}

func (e *emitter) publish(ctx context.Context, topic string, payload queue.PastePayload) {
	opts := []queue.HeaderOption{queue.WithProducer(producer)}
	if id := ctxPkg.GetRequestID(ctx); id != "" {
		opts = append(opts, queue.WithTraceID(id))
	}

	e.async.Go(ctx, "event."+topic, func(ctx context.Context) error {
		return queue.PublishPaste(ctx, e.pub, topic, payload, opts...)
	})
}

func pasteRef(d *model.PasteDescriptor) queue.PasteRef {
	return queue.PasteRef{
		ID:        d.UUID,
		Type:      d.PasteType.String(),
		Location:  d.Location(),
		Size:      d.FileSize,
		MimeType:  d.MimeType,
		Protected: d.HasPassword(),
		ExpiredAt: d.ExpiredAt,
	}
}

// observe 为一次引擎操作开启 span，结束时记录结果指标.
//
//	ctx, done := observe(ctx, "read", id)
//	defer func() { done(err) }()
func observe(ctx context.Context, op, id string) (context.Context, func(error)) {
	ctx, span := tracing.StartSpan(ctx, "paste."+op, trace.WithAttributes(
		attribute.String("paste.op", op),
		attribute.String("paste.id", id),
	))

	return ctx, func(err error) {
		result := "ok"
		if err != nil {
			result = KindOf(err).String()
			span.RecordError(err)
			span.SetStatus(codes.Error, result)
		}

		metrics.PasteOperations.WithLabelValues(op, result).Inc()
		span.End()
	}
}
