package mq

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/yeisme/pastevault/pkg/configs"
)

const amqpExchangeKind = "topic"

// AMQPPublisher 发布到 topic exchange，路由键即主题.
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	durable  bool
	mu       sync.Mutex
}

// AMQPSubscriber 每次订阅声明一个队列并绑定到 exchange.
type AMQPSubscriber struct {
	conn    *amqp.Connection
	cfg     configs.MQAMQPConfig
	logger  watermill.LoggerAdapter
	mu      sync.Mutex
	chans   []*amqp.Channel
	closed  bool
	closeCh chan struct{}
}

func init() {
	RegisterFactory(configs.MQTypeAMQP, amqpFactory)
}

// amqpFactory 创建 RabbitMQ Publisher & Subscriber，二者共用一个连接.
func amqpFactory(
	_ context.Context,
	cfg *configs.MQConfig,
	logger watermill.LoggerAdapter) (
	message.Publisher, message.Subscriber, error) {
	conn, err := amqp.DialConfig(cfg.AMQP.URL, amqp.Config{
		Properties: amqp.Table{"connection_name": cfg.ClientID},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.AMQP.Exchange, amqpExchangeKind, cfg.AMQP.Durable, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare exchange %s: %w", cfg.AMQP.Exchange, err)
	}

	pub := &AMQPPublisher{conn: conn, channel: ch, exchange: cfg.AMQP.Exchange, durable: cfg.AMQP.Durable}
	sub := &AMQPSubscriber{conn: conn, cfg: cfg.AMQP, logger: logger, closeCh: make(chan struct{})}

	return pub, sub, nil
}

// Publish 实现 Publisher 接口，metadata 写入消息头.
func (p *AMQPPublisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	mode := amqp.Transient
	if p.durable {
		mode = amqp.Persistent
	}

	for _, msg := range msgs {
		headers := amqp.Table{}
		for k, v := range msg.Metadata {
			headers[k] = v
		}

		err := p.channel.PublishWithContext(msg.Context(), p.exchange, topic, false, false, amqp.Publishing{
			MessageId:    msg.UUID,
			ContentType:  "application/json",
			DeliveryMode: mode,
			Headers:      headers,
			Body:         msg.Payload,
		})
		if err != nil {
			return fmt.Errorf("amqp publish %s: %w", topic, err)
		}
	}

	return nil
}

// Ping 检查连接状态.
func (p *AMQPPublisher) Ping(context.Context) error {
	if p.conn.IsClosed() || p.channel.IsClosed() {
		return fmt.Errorf("amqp connection closed")
	}

	return nil
}

// Close 关闭发布通道，连接由 Subscriber 关闭.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel.IsClosed() {
		return nil
	}

	return p.channel.Close()
}

// Subscribe 声明队列并消费. Queue 配置为空时使用排他临时队列.
func (s *AMQPSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("amqp subscriber closed")
	}

	ch, err := s.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	if s.cfg.Prefetch > 0 {
		if err := ch.Qos(s.cfg.Prefetch, 0, false); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("set qos: %w", err)
		}
	}

	name, exclusive := "", true
	if s.cfg.Queue != "" {
		name, exclusive = s.cfg.Queue+"."+topic, false
	}

	q, err := ch.QueueDeclare(name, s.cfg.Durable && !exclusive, exclusive, exclusive, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, topic, s.cfg.Exchange, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("bind queue %s: %w", q.Name, err)
	}

	deliveries, err := ch.Consume(q.Name, "", false, exclusive, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("consume %s: %w", q.Name, err)
	}

	s.chans = append(s.chans, ch)

	out := make(chan *message.Message, s.cfg.Prefetch)
	go s.forward(ctx, topic, deliveries, out)

	return out, nil
}

// forward 把投递转换为 watermill 消息，按下游 Ack/Nack 回应 broker.
func (s *AMQPSubscriber) forward(ctx context.Context, topic string, in <-chan amqp.Delivery, out chan<- *message.Message) {
	defer close(out)

	for {
		select {
		case <-s.closeCh:
			return
		case <-ctx.Done():
			return
		case d, ok := <-in:
			if !ok {
				return
			}

			id := d.MessageId
			if id == "" {
				id = watermill.NewUUID()
			}

			msg := message.NewMessage(id, d.Body)
			for k, v := range d.Headers {
				if sv, ok := v.(string); ok {
					msg.Metadata.Set(k, sv)
				}
			}

			select {
			case out <- msg:
			case <-s.closeCh:
				_ = d.Nack(false, true)
				return
			case <-ctx.Done():
				_ = d.Nack(false, true)
				return
			}

			select {
			case <-msg.Acked():
				_ = d.Ack(false)
			case <-msg.Nacked():
				_ = d.Nack(false, true)
			case <-s.closeCh:
				_ = d.Nack(false, true)
				return
			case <-ctx.Done():
				_ = d.Nack(false, true)
				return
			}

			s.logger.Trace("amqp message handled", watermill.LogFields{"topic": topic, "uuid": id})
		}
	}
}

// Close 关闭所有消费通道与连接.
func (s *AMQPSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	close(s.closeCh)

	for _, ch := range s.chans {
		_ = ch.Close()
	}

	if s.conn.IsClosed() {
		return nil
	}

	return s.conn.Close()
}
