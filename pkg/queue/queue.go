// Package queue 定义粘贴生命周期事件的消息格式，供发布/订阅使用.
//
// 引擎在创建、完成、访问、修改、删除、清理粘贴后发布事件，由 events.* 配置开关.
// 每条消息是 Message[PastePayload]，即 Header + Payload 的 JSON，编码使用 bytedance/sonic.
// 主题见 topics.go，负载见 payloads.go.
//
//	{
//	  "header": {"topic": "pv.paste.created", "trace_id": "...", "producer": "pastevault",
//	             "occurred_at": "2025-01-02T03:04:05.123456Z", "version": "v1"},
//	  "payload": {"paste": {"id": "Ab12", "type": "paste", "location": "default", "size": 5}}
//	}
//
// 消息 ID 为 ULID，可按时间排序. 头部字段同时写入 watermill 元数据，消费者不解码负载也能路由.
// 消费者应忽略未知字段.
//
//	ch, _ := mqClient.Subscribe(ctx, queue.TopicPasteCreated)
//	for m := range ch {
//		env, _ := queue.ParsePaste(m)
//		m.Ack()
//	}
package queue

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/oklog/ulid"
)

// PayloadVersionV1 当前负载版本.
const PayloadVersionV1 = "v1"

// 元数据键.
const (
	MetaTopic      = "topic"
	MetaTraceID    = "trace_id"
	MetaProducer   = "producer"
	MetaOccurredAt = "occurred_at"
	MetaVersion    = "version"
)

var (
	ulidMu      sync.Mutex
	ulidEntropy = ulid.Monotonic(rand.Reader, 0)
)

// NewEventID 同一毫秒内单调递增.
func NewEventID(at time.Time) string {
	ulidMu.Lock()
	defer ulidMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(at), ulidEntropy).String()
}

// HeaderOption 修改事件头.
type HeaderOption func(*EventHeader)

func WithTraceID(id string) HeaderOption { return func(h *EventHeader) { h.TraceID = id } }

func WithProducer(p string) HeaderOption { return func(h *EventHeader) { h.Producer = p } }

// WithOccurredAt 默认是当前时间，统一转为 UTC.
func WithOccurredAt(at time.Time) HeaderOption {
	return func(h *EventHeader) { h.OccurredAt = at.UTC() }
}

// Publisher mq.Client 满足该接口.
type Publisher interface {
	Publish(ctx context.Context, topic string, msgs ...*message.Message) error
}

// Decode 解码 JSON 信封.
func Decode[T any](b []byte) (Message[T], error) {
	var m Message[T]

	err := sonic.Unmarshal(b, &m)

	return m, err
}

func newMessage[T any](topic string, payload T, opts []HeaderOption) (*message.Message, error) {
	hdr := EventHeader{Topic: topic, OccurredAt: time.Now().UTC(), Version: PayloadVersionV1}
	for _, opt := range opts {
		opt(&hdr)
	}

	data, err := sonic.Marshal(Message[T]{Header: hdr, Payload: payload})
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(NewEventID(hdr.OccurredAt), data)

	for k, v := range map[string]string{
		MetaTopic:      hdr.Topic,
		MetaTraceID:    hdr.TraceID,
		MetaProducer:   hdr.Producer,
		MetaOccurredAt: hdr.OccurredAt.Format(time.RFC3339Nano),
		MetaVersion:    hdr.Version,
	} {
		if v != "" {
			msg.Metadata.Set(k, v)
		}
	}

	return msg, nil
}

// PublishPaste 发布一个 pv.paste.* 事件.
func PublishPaste(ctx context.Context, pub Publisher, topic string, payload PastePayload, opts ...HeaderOption) error {
	msg, err := newMessage(topic, payload, opts)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, topic, msg)
}

// ParsePaste 解出 pv.paste.* 事件.
func ParsePaste(msg *message.Message) (Message[PastePayload], error) {
	return Decode[PastePayload](msg.Payload)
}
