package mq

import (
	"context"
	"testing"

	"github.com/jjudge-oj/usersapi/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEmulatorClient builds a client against an emulator address. The gRPC
// connection is lazy, so nothing needs to listen there.
func newEmulatorClient(t *testing.T, cfg config.PubSubConfig) *PubSubClient {
	t.Helper()
	t.Setenv("PUBSUB_EMULATOR_HOST", "127.0.0.1:1")

	client, err := NewPubSubClient(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewPubSubClient_Config(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.PubSubConfig
		want string
	}{
		{"missing project", config.PubSubConfig{}, "pubsub project id is required"},
		{"blank project", config.PubSubConfig{ProjectID: "   "}, "pubsub project id is required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPubSubClient(context.Background(), tc.cfg)
			assert.EqualError(t, err, tc.want)
		})
	}
}

func TestPubSubClient_SubscriptionName(t *testing.T) {
	client := newEmulatorClient(t, config.PubSubConfig{ProjectID: "users-test"})
	assert.Equal(t, "users.events-sub", client.subscriptionName("users.events"))

	client = newEmulatorClient(t, config.PubSubConfig{ProjectID: "users-test", SubscriptionSuffix: ".tail"})
	assert.Equal(t, "users.events.tail", client.subscriptionName("users.events"))
}

func TestPubSubClient_ChannelRequired(t *testing.T) {
	client := newEmulatorClient(t, config.PubSubConfig{ProjectID: "users-test"})

	_, err := client.Publish(context.Background(), " ", []byte("{}"), nil)
	assert.ErrorIs(t, err, ErrChannelRequired)

	err = client.Subscribe(context.Background(), "", func(ctx context.Context, msg Message) error { return nil })
	assert.ErrorIs(t, err, ErrChannelRequired)
}

func TestOpen_PubSubBackend(t *testing.T) {
	t.Setenv("PUBSUB_EMULATOR_HOST", "127.0.0.1:1")
	cfg := config.Config{
		MQ:     config.MQConfig{Backend: "pubsub"},
		PubSub: config.PubSubConfig{ProjectID: "users-test"},
	}

	m, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, m)
	_, ok := m.backend.(*PubSubClient)
	assert.True(t, ok)
	assert.NoError(t, m.Close())
}
