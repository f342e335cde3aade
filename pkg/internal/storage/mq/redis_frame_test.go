package mq

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisFrameKeepsMetadata(t *testing.T) {
	msg := message.NewMessage("01J9Z3K8W6Q5R4T3Y2X1V0U9S8", []byte(`{"payload":{"paste":{"id":"Ab12"}}}`))
	msg.Metadata.Set("topic", "pv.paste.created")
	msg.Metadata.Set("trace_id", "req-1")

	raw, err := encodeFrame(msg)
	require.NoError(t, err)

	got, err := decodeFrame(string(raw))
	require.NoError(t, err)

	assert.Equal(t, msg.UUID, got.UUID)
	assert.Equal(t, msg.Payload, got.Payload)
	assert.Equal(t, "pv.paste.created", got.Metadata.Get("topic"))
	assert.Equal(t, "req-1", got.Metadata.Get("trace_id"))
}

func TestRedisFrameRejectsGarbage(t *testing.T) {
	_, err := decodeFrame("not json")
	assert.Error(t, err)

	got, err := decodeFrame(`{"payload":"aGk="}`)
	require.NoError(t, err)
	assert.NotEmpty(t, got.UUID)
	assert.Equal(t, []byte("hi"), []byte(got.Payload))
}
