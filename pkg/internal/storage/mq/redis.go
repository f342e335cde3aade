package mq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/yeisme/pastevault/pkg/configs"
)

var errRedisClosed = errors.New("redis pubsub: closed")

// redisFrame Redis 频道上传输的内容. Pub/Sub 只有字符串负载，消息 ID 与元数据一起编码.
type redisFrame struct {
	UUID     string            `json:"uuid"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Payload  []byte            `json:"payload"`
}

func encodeFrame(msg *message.Message) ([]byte, error) {
	return sonic.Marshal(redisFrame{UUID: msg.UUID, Metadata: msg.Metadata, Payload: msg.Payload})
}

func decodeFrame(raw string) (*message.Message, error) {
	var f redisFrame
	if err := sonic.UnmarshalString(raw, &f); err != nil {
		return nil, err
	}

	if f.UUID == "" {
		f.UUID = watermill.NewUUID()
	}

	msg := message.NewMessage(f.UUID, f.Payload)
	for k, v := range f.Metadata {
		msg.Metadata.Set(k, v)
	}

	return msg, nil
}

// redisPubSub 同时实现 Publisher 与 Subscriber，共用一个连接池.
// 每个订阅按顺序投递，上一条消息 Ack 或 Nack 之后才投递下一条；Nack 的消息不会重投.
type redisPubSub struct {
	rdb    *redis.Client
	buffer int
	logger watermill.LoggerAdapter

	mu     sync.Mutex
	subs   []*redis.PubSub
	done   chan struct{}
	closed bool
}

func init() {
	RegisterFactory(configs.MQTypeRedis, redisFactory)
}

func redisFactory(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		ClientName: cfg.ClientID,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis pubsub: ping %s: %w", cfg.Redis.Addr, err)
	}

	ps := &redisPubSub{
		rdb:    rdb,
		buffer: cfg.Redis.Buffer,
		logger: logger.With(watermill.LogFields{"backend": "redis"}),
		done:   make(chan struct{}),
	}

	return ps, ps, nil
}

func (r *redisPubSub) Publish(topic string, msgs ...*message.Message) error {
	if r.isClosed() {
		return errRedisClosed
	}

	ctx := context.Background()
	if len(msgs) > 0 {
		ctx = msgs[0].Context()
	}

	pipe := r.rdb.Pipeline()

	for _, msg := range msgs {
		b, err := encodeFrame(msg)
		if err != nil {
			return fmt.Errorf("redis pubsub: encode %s: %w", msg.UUID, err)
		}

		pipe.Publish(ctx, topic, b)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pubsub: publish %s: %w", topic, err)
	}

	return nil
}

func (r *redisPubSub) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, errRedisClosed
	}

	sub := r.rdb.Subscribe(ctx, topic)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis pubsub: subscribe %s: %w", topic, err)
	}

	r.subs = append(r.subs, sub)

	out := make(chan *message.Message, r.buffer)
	go r.forward(ctx, topic, sub.Channel(), out)

	return out, nil
}

func (r *redisPubSub) forward(ctx context.Context, topic string, in <-chan *redis.Message, out chan<- *message.Message) {
	defer close(out)

	fields := watermill.LogFields{"topic": topic}

	for {
		var raw *redis.Message

		select {
		case m, ok := <-in:
			if !ok {
				return
			}

			raw = m
		case <-r.done:
			return
		case <-ctx.Done():
			return
		}

		msg, err := decodeFrame(raw.Payload)
		if err != nil {
			r.logger.Error("drop undecodable redis message", err, fields)
			continue
		}

		msg.SetContext(ctx)

		select {
		case out <- msg:
		case <-r.done:
			return
		case <-ctx.Done():
			return
		}

		select {
		case <-msg.Acked():
		case <-msg.Nacked():
			r.logger.Debug("redis message nacked, dropped", fields.Add(watermill.LogFields{"uuid": msg.UUID}))
		case <-r.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (r *redisPubSub) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.closed
}

// Ping 健康检查使用.
func (r *redisPubSub) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close 可重复调用. Publisher 与 Subscriber 是同一个对象，第二次调用直接返回.
func (r *redisPubSub) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true
	close(r.done)

	var errs []error
	for _, sub := range r.subs {
		errs = append(errs, sub.Close())
	}

	errs = append(errs, r.rdb.Close())

	return errors.Join(errs...)
}
