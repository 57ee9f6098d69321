package pubsub

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// formPattern matches every per-form event channel.
const formPattern = "form:*"

// Bus carries form events over redis pub/sub. Every instance publishes to
// redis and consumes the same channels back through Listen, so dashboard
// delivery works across instances. Publishing is best-effort: a failed
// publish is logged and never fails the request that caused it.
type Bus struct {
	rdb *redis.Client
	log *zap.Logger
	ctx context.Context
}

// Subscriber receives events consumed from redis. Satisfied by ws.Hub.
type Subscriber interface {
	Publish(channel string, message map[string]interface{})
}

func New(rdb *redis.Client, log *zap.Logger) *Bus {
	return &Bus{
		rdb: rdb,
		log: log,
		ctx: context.Background(),
	}
}

// PublishForm publishes an event to a form's channel. The owner's dashboard
// subscribes per form.
func (b *Bus) PublishForm(formID string, event map[string]interface{}) error {
	return b.Publish("form:"+formID, event)
}

// Publish publishes an event to a channel
func (b *Bus) Publish(channel string, event map[string]interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := b.rdb.Publish(b.ctx, channel, data).Err(); err != nil {
		b.log.Error("Failed to publish event", zap.String("channel", channel), zap.Error(err))
		return err
	}

	b.log.Debug("Published event", zap.String("channel", channel), zap.String("event", string(data)))
	return nil
}

// Listen consumes form event channels and forwards each message to sub.
// Call in its own goroutine; it returns when the subscription closes.
// Messages that fail to decode are logged and skipped.
func (b *Bus) Listen(sub Subscriber) {
	ps := b.rdb.PSubscribe(b.ctx, formPattern)
	defer ps.Close()

	for msg := range ps.Channel() {
		var event map[string]interface{}
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			b.log.Error("Failed to decode event", zap.String("channel", msg.Channel), zap.Error(err))
			continue
		}
		sub.Publish(msg.Channel, event)
	}
}
