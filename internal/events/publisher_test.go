package events

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prudhvinik1/customer-service/internal/logging"
	"github.com/prudhvinik1/customer-service/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRedisPublisher_Publish tests that a subscriber receives the JSON payload
func TestRedisPublisher_Publish(t *testing.T) {
	client := getTestRedisClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	channel := "test-shopping-" + uuid.NewString()
	sub := client.Subscribe(ctx, channel)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err, "subscription should be confirmed")

	accountID := uuid.New()
	err = NewRedisPublisher(client).Publish(ctx, channel, models.NewDeletionEvent(accountID))
	require.NoError(t, err)

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var got models.DeletionEvent
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, "DELETE_PROFILE", got.Event)
	assert.Equal(t, accountID, got.Data.AccountID)
}

func TestLogPublisher_Publish(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	accountID := uuid.New()
	err := NewLogPublisher(logger).Publish(context.Background(), "SHOPPING_SERVICE", models.NewDeletionEvent(accountID))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "channel=SHOPPING_SERVICE")
	assert.Contains(t, buf.String(), accountID.String())
}

func TestLogPublisher_UnmarshalablePayload(t *testing.T) {
	err := NewLogPublisher(logging.Discard()).Publish(context.Background(), "c", make(chan int))
	assert.Error(t, err)
}

// getTestRedisClient returns a Redis client for testing, skipping when none is reachable
func getTestRedisClient(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1, // Use DB 1 for tests (different from production DB 0)
	})
	t.Cleanup(func() { client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	return client
}
