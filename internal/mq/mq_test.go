package mq

import (
	"context"
	"testing"

	"github.com/jjudge-oj/usersapi/config"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Disabled(t *testing.T) {
	m, err := Open(context.Background(), config.Config{})
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestOpen_UnknownBackend(t *testing.T) {
	cfg := config.Config{MQ: config.MQConfig{Backend: "kafka"}}

	_, err := Open(context.Background(), cfg)
	assert.ErrorContains(t, err, `unknown mq backend "kafka"`)
}

func TestOpen_RabbitMQRequiresURL(t *testing.T) {
	cfg := config.Config{MQ: config.MQConfig{Backend: "rabbitmq"}}

	_, err := Open(context.Background(), cfg)
	assert.ErrorContains(t, err, "rabbitmq url is required")
}

func TestOpen_PubSubRequiresProject(t *testing.T) {
	cfg := config.Config{MQ: config.MQConfig{Backend: "pubsub"}}

	_, err := Open(context.Background(), cfg)
	assert.ErrorContains(t, err, "pubsub project id is required")
}

func TestHeadersToAttributes(t *testing.T) {
	assert.Nil(t, headersToAttributes(nil))

	attrs := headersToAttributes(amqp.Table{
		"type":  "user.created",
		"raw":   []byte("bytes"),
		"count": int32(3),
	})
	assert.Equal(t, map[string]string{
		"type":  "user.created",
		"raw":   "bytes",
		"count": "3",
	}, attrs)
}

func TestDeliveryMode(t *testing.T) {
	assert.Equal(t, amqp.Persistent, (&RabbitMQClient{queueDurable: true}).deliveryMode())
	assert.Equal(t, amqp.Transient, (&RabbitMQClient{}).deliveryMode())
}

type recordingBackend struct {
	channel string
	data    []byte
	closed  bool
}

func (b *recordingBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	b.channel = channel
	b.data = data
	return "id-1", nil
}

func (b *recordingBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	return handler(ctx, Message{ID: "id-1", Data: b.data})
}

func (b *recordingBackend) Close() error {
	b.closed = true
	return nil
}

func TestMQ_DelegatesToBackend(t *testing.T) {
	backend := &recordingBackend{}
	m := New(backend)

	id, err := m.Publish(context.Background(), "users.events", []byte("payload"), nil)
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)
	assert.Equal(t, "users.events", backend.channel)

	var got Message
	require.NoError(t, m.Subscribe(context.Background(), "users.events", func(ctx context.Context, msg Message) error {
		got = msg
		return nil
	}))
	assert.Equal(t, []byte("payload"), got.Data)

	require.NoError(t, m.Close())
	assert.True(t, backend.closed)
}
