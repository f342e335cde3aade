package mq

import (
	"context"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nats.go"

	"github.com/yeisme/pastevault/pkg/configs"
)

const natsDrainTimeout = 10 * time.Second

func init() {
	RegisterFactory(configs.MQTypeNATS, natsFactory)
}

func natsOptions(cfg *configs.MQConfig) []nats.Option {
	n := cfg.NATS

	opts := []nats.Option{
		nats.Name(cfg.ClientID),
		nats.MaxReconnects(n.MaxReconnects),
		nats.RetryOnFailedConnect(true),
		nats.DrainTimeout(natsDrainTimeout),
	}

	if n.ReconnectWait > 0 {
		opts = append(opts, nats.ReconnectWait(n.ReconnectWait))
	}

	if n.PingInterval > 0 {
		opts = append(opts, nats.PingInterval(n.PingInterval))
	}

	if n.MaxPingsOut > 0 {
		opts = append(opts, nats.MaxPingsOutstanding(n.MaxPingsOut))
	}

	if n.BufferSize > 0 {
		opts = append(opts, nats.ReconnectBufSize(n.BufferSize))
	}

	switch {
	case n.JWT != "":
		opts = append(opts, nats.UserJWTAndSeed(n.JWT, n.NKey))
	case n.User != "":
		opts = append(opts, nats.UserInfo(n.User, n.Password))
	}

	return opts
}

// natsFactory 发布与订阅各用一条连接，JetStream 打开时事件持久化在自动创建的 stream 中.
func natsFactory(_ context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	js := cfg.NATS.JetStream
	jsCfg := wmnats.JetStreamConfig{
		Disabled:      !js.Enabled,
		AutoProvision: js.AutoProvision,
		TrackMsgId:    js.TrackMsgID,
		AckAsync:      js.AckAsync,
		DurablePrefix: js.DurablePrefix,
	}

	url := strings.Join(cfg.NATS.URLs, ",")
	marshaler := &wmnats.JSONMarshaler{}

	pub, err := wmnats.NewPublisher(wmnats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOptions(cfg),
		JetStream:   jsCfg,
		Marshaler:   marshaler,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	subCfg := wmnats.SubscriberConfig{
		URL:         url,
		NatsOptions: natsOptions(cfg),
		JetStream:   jsCfg,
		Unmarshaler: marshaler,
	}
	if cfg.NATS.QueueGroup {
		subCfg.QueueGroupPrefix = cfg.ClientID
	}

	sub, err := wmnats.NewSubscriber(subCfg, logger)
	if err != nil {
		_ = pub.Close()
		return nil, nil, err
	}

	return pub, sub, nil
}
