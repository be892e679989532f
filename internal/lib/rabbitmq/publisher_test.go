package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_RoutesEventToQueue(t *testing.T) {
	ctx := context.Background()
	amqpURI := amqpURIForTest(ctx, t)

	conn, err := Connect(amqpURI, 5, time.Second)
	require.NoError(t, err)
	defer func() {
		if err := conn.Close(); err != nil {
			t.Errorf("failed to close connection: %v", err)
		}
	}()

	ch, err := SetupChannel(conn, GetNotificationQueues())
	require.NoError(t, err)
	publisher := NewPublisher(ch)

	type activated struct {
		UserUID string `json:"user_uid"`
		Plan    string `json:"plan"`
	}
	msg := activated{UserUID: "uid-1", Plan: "monthly"}
	require.NoError(t, publisher.Publish(ctx, RoutingSubscriptionActivated, msg))

	consumeCh, err := conn.Channel()
	require.NoError(t, err)
	deliveries, err := consumeCh.Consume("notifications.subscription", "test-consumer", true, false, false, false, nil)
	require.NoError(t, err)

	select {
	case d := <-deliveries:
		var got activated
		require.NoError(t, json.Unmarshal(d.Body, &got))
		assert.Equal(t, msg, got)
		assert.Equal(t, "application/json", d.ContentType)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message via exchange")
	}

	t.Run("marshal error", func(t *testing.T) {
		badMsg := struct {
			Ch chan int `json:"ch"`
		}{
			Ch: make(chan int),
		}
		err := publisher.Publish(ctx, RoutingReceiptUploaded, badMsg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rabbitmq.PublishMessage")
	})
}

func TestPublisher_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewPublisher(nil).Publish(ctx, RoutingReceiptUploaded, "x")
	require.ErrorIs(t, err, context.Canceled)
}
