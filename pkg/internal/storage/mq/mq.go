// Package mq 基于 Watermill 提供统一的发布/订阅客户端.
//
// 支持的 MQ 类型：
//   - nats（可选 JetStream）
//   - redis（Pub/Sub）
//   - amqp（RabbitMQ topic exchange）
//
// 各实现通过 RegisterFactory 在 init 中注册，New 按配置选择.
package mq

import (
	"context"
	"fmt"
	"sort"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yeisme/pastevault/pkg/configs"
	nlog "github.com/yeisme/pastevault/pkg/log"
)

// Factory 定义创建 Publisher + Subscriber 的工厂函数.
type Factory func(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error)

var factories = map[configs.MQType]Factory{}

// RegisterFactory 注册指定 MQType 的工厂.
func RegisterFactory(t configs.MQType, f Factory) {
	factories[t] = f
}

// GetRegisteredMQTypes 返回已注册的 MQ 类型.
func GetRegisteredMQTypes() []configs.MQType {
	types := make([]configs.MQType, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// pinger 可主动检查连通性的 Publisher.
type pinger interface {
	Ping(ctx context.Context) error
}

// Client 封装 watermill Publisher 与 Subscriber.
type Client struct {
	Type configs.MQType

	publisher  message.Publisher
	subscriber message.Subscriber
	raw        message.Publisher
}

// NewClient 使用已有的 Publisher/Subscriber，测试中配合 gochannel 使用.
func NewClient(t configs.MQType, pub message.Publisher, sub message.Subscriber) *Client {
	return &Client{Type: t, publisher: pub, subscriber: sub, raw: pub}
}

// New 按配置创建客户端. withMetrics 为 true 时把发布/订阅指标注册到默认 prometheus 注册表.
func New(ctx context.Context, cfg *configs.MQConfig, withMetrics bool) (*Client, error) {
	factory, ok := factories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported mq type: %s", cfg.Type)
	}

	logger := NewLoggerAdapter(nlog.Logger())

	pub, sub, err := factory(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init mq (%s): %w", cfg.Type, err)
	}

	c := &Client{Type: cfg.Type, publisher: pub, subscriber: sub, raw: pub}

	if withMetrics && cfg.EnableMetrics {
		builder := metrics.NewPrometheusMetricsBuilder(prometheus.DefaultRegisterer, "pastevault", "mq")

		if c.publisher, err = builder.DecoratePublisher(pub); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("decorate publisher with metrics: %w", err)
		}

		if c.subscriber, err = builder.DecorateSubscriber(sub); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("decorate subscriber with metrics: %w", err)
		}
	}

	nlog.Logger().Info().Str("type", string(cfg.Type)).Msg("MQ 客户端已初始化")

	return c, nil
}

// Publish 发布消息.
func (c *Client) Publish(ctx context.Context, topic string, msgs ...*message.Message) error {
	if c == nil || c.publisher == nil {
		return fmt.Errorf("mq publisher not initialized")
	}

	for _, m := range msgs {
		m.SetContext(ctx)
	}

	return c.publisher.Publish(topic, msgs...)
}

// Subscribe 订阅主题，ctx 结束时通道关闭.
func (c *Client) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if c == nil || c.subscriber == nil {
		return nil, fmt.Errorf("mq subscriber not initialized")
	}

	return c.subscriber.Subscribe(ctx, topic)
}

// HealthCheck 支持 Ping 的实现主动检查，其余只检查是否已初始化.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c == nil || c.publisher == nil {
		return fmt.Errorf("mq not initialized")
	}

	if p, ok := c.raw.(pinger); ok {
		return p.Ping(ctx)
	}

	return nil
}

// Close 关闭资源.
func (c *Client) Close() error {
	var err error

	if c.publisher != nil {
		if e := c.publisher.Close(); e != nil {
			err = e
		}
	}

	if c.subscriber != nil {
		if e := c.subscriber.Close(); e != nil {
			err = e
		}
	}

	return err
}
