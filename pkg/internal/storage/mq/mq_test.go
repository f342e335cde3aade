package mq_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/pastevault/pkg/configs"
	"github.com/yeisme/pastevault/pkg/internal/storage/mq"
)

func TestRegisteredTypes(t *testing.T) {
	types := mq.GetRegisteredMQTypes()
	assert.Equal(t, []configs.MQType{configs.MQTypeAMQP, configs.MQTypeNATS, configs.MQTypeRedis}, types)
}

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := mq.New(context.Background(), &configs.MQConfig{Type: "kafka"}, false)
	assert.Error(t, err)
}

func TestClientPublishSubscribe(t *testing.T) {
	ps := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	c := mq.NewClient("test", ps, ps)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := c.Subscribe(ctx, "pv.paste.created")
	require.NoError(t, err)

	require.NoError(t, c.Publish(ctx, "pv.paste.created", message.NewMessage("1", []byte(`{"a":1}`))))

	select {
	case m := <-ch:
		assert.Equal(t, `{"a":1}`, string(m.Payload))
		m.Ack()
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}

	assert.NoError(t, c.HealthCheck(ctx))
	assert.NoError(t, c.Close())
}

func TestNilClient(t *testing.T) {
	var c *mq.Client
	assert.Error(t, c.Publish(context.Background(), "t"))
	assert.Error(t, c.HealthCheck(context.Background()))
}

func TestLoggerAdapter(t *testing.T) {
	var buf bytes.Buffer

	l := zerolog.New(&buf).Level(zerolog.DebugLevel)
	a := mq.NewLoggerAdapter(&l).With(watermill.LogFields{"topic": "pv.paste.created"})

	a.Trace("dropped", nil)
	a.Debug("dropped too", nil)
	a.Info("subscribing", watermill.LogFields{"n": 1})
	a.Error("publish failed", errors.New("conn reset"), nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"level":"debug"`)
	assert.Contains(t, lines[0], `"topic":"pv.paste.created"`)
	assert.Contains(t, lines[0], `"component":"mq"`)
	assert.Contains(t, lines[1], `"error":"conn reset"`)
}
