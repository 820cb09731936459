package messaging

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"cloud.google.com/go/pubsub/v2/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const pubSubTestProject = "bankvault-test"

func newPubSubTestClient(t *testing.T) *pubsub.Client {
	t.Helper()

	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	client, err := pubsub.NewClient(context.Background(), pubSubTestProject, option.WithGRPCConn(conn))
	require.NoError(t, err)
	return client
}

func createPubSubSubscription(t *testing.T, client *pubsub.Client, topic, subscription string) {
	t.Helper()

	ctx := context.Background()
	topicName := "projects/" + pubSubTestProject + "/topics/" + topic

	_, err := client.TopicAdminClient.CreateTopic(ctx, &pubsubpb.Topic{Name: topicName})
	require.NoError(t, err)

	_, err = client.SubscriptionAdminClient.CreateSubscription(ctx, &pubsubpb.Subscription{
		Name:               "projects/" + pubSubTestProject + "/subscriptions/" + subscription,
		Topic:              topicName,
		AckDeadlineSeconds: 10,
	})
	require.NoError(t, err)
}

func TestNewPubSub(t *testing.T) {
	t.Run("RequiresProjectWithoutClient", func(t *testing.T) {
		_, err := NewPubSub(context.Background(), PubSubConfig{})
		assert.ErrorIs(t, err, ErrPubSubProjectIDRequired)
	})

	t.Run("UsesGivenClient", func(t *testing.T) {
		// Arrange
		client := newPubSubTestClient(t)

		// Act
		p, err := NewPubSub(context.Background(), PubSubConfig{Client: client})

		// Assert
		require.NoError(t, err)
		assert.NoError(t, p.Close())
		assert.NoError(t, p.Close(), "second close is a no-op")
	})
}

func TestPubSub_PublishConsume(t *testing.T) {
	// Arrange
	client := newPubSubTestClient(t)
	createPubSubSubscription(t, client, "vault_events", "vault_events_notification")

	broker, err := NewPubSub(context.Background(), PubSubConfig{Client: client})
	require.NoError(t, err)
	t.Cleanup(func() { _ = broker.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var attempts atomic.Int32
	got := make(chan Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- broker.Consume(ctx, "vault_events", func(_ context.Context, msg Message) error {
			if attempts.Add(1) == 1 {
				return errors.New("transient")
			}
			got <- msg
			return nil
		}, WithGroup("vault_events_notification"))
	}()

	// Act
	err = broker.Publish(ctx, "vault_events", OutgoingMessage{
		Key:     []byte("acc-1"),
		Body:    []byte("hello"),
		Headers: map[string]string{"trace": "abc"},
	})
	require.NoError(t, err)

	var msg Message
	select {
	case msg = <-got:
	case <-ctx.Done():
		t.Fatal("message was not redelivered after nack")
	}
	cancel()

	// Assert
	assert.Equal(t, "vault_events", msg.Source())
	assert.Equal(t, []byte("hello"), msg.Body())
	assert.Equal(t, []byte("acc-1"), msg.Key())
	assert.Equal(t, "abc", msg.Header("trace"))
	assert.Empty(t, msg.Header(pubSubKeyAttribute), "key attribute is not exposed as a header")
	assert.GreaterOrEqual(t, attempts.Load(), int32(2))
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestPubSub_Validation(t *testing.T) {
	// Arrange
	broker, err := NewPubSub(context.Background(), PubSubConfig{Client: newPubSubTestClient(t)})
	require.NoError(t, err)
	noop := func(context.Context, Message) error { return nil }

	// Act & Assert
	assert.ErrorIs(t, broker.Publish(context.Background(), "", OutgoingMessage{}), ErrDestinationRequired)
	assert.ErrorIs(t, broker.Consume(context.Background(), "", noop), ErrDestinationRequired)
	assert.ErrorIs(t, broker.Consume(context.Background(), "t", nil), ErrHandlerRequired)

	require.NoError(t, broker.Close())
	assert.ErrorIs(t, broker.Publish(context.Background(), "t", OutgoingMessage{}), ErrClosed)
	assert.ErrorIs(t, broker.Consume(context.Background(), "t", noop), ErrClosed)
}
