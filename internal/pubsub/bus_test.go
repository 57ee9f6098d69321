package pubsub

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captureSub struct {
	mu     sync.Mutex
	events []capturedEvent
}

type capturedEvent struct {
	channel string
	message map[string]interface{}
}

func (c *captureSub) Publish(channel string, message map[string]interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, capturedEvent{channel: channel, message: message})
}

func (c *captureSub) wait(t *testing.T, n int) []capturedEvent {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		if len(c.events) >= n {
			events := make([]capturedEvent, len(c.events))
			copy(events, c.events)
			c.mu.Unlock()
			return events
		}
		c.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events", n)
	return nil
}

func testClient(t *testing.T) *redis.Client {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", addr, err)
	}
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestPublishReachesListener(t *testing.T) {
	rdb := testClient(t)
	bus := New(rdb, zap.NewNop())

	sub := &captureSub{}
	go bus.Listen(sub)
	// PSubscribe registers asynchronously; give it a moment before publishing.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, bus.PublishForm("01TESTFORM", map[string]interface{}{
		"type":   "form.viewed",
		"formId": "01TESTFORM",
	}))

	events := sub.wait(t, 1)
	assert.Equal(t, "form:01TESTFORM", events[0].channel)
	assert.Equal(t, "form.viewed", events[0].message["type"])
}

func TestListenSkipsUndecodableMessages(t *testing.T) {
	rdb := testClient(t)
	bus := New(rdb, zap.NewNop())

	sub := &captureSub{}
	go bus.Listen(sub)
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, rdb.Publish(context.Background(), "form:01TESTFORM", "not json").Err())
	require.NoError(t, bus.PublishForm("01TESTFORM", map[string]interface{}{"type": "form.submitted"}))

	events := sub.wait(t, 1)
	require.Len(t, events, 1)
	assert.Equal(t, "form.submitted", events[0].message["type"])
}
