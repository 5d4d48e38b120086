// Package realtime fans events out to connected clients over redis pub/sub.
// Delivery is at most once and unacknowledged; clients re-fetch state when a
// topic fires.
package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "agora:"

type Broadcaster struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Broadcaster { return &Broadcaster{rdb: rdb} }

func (b *Broadcaster) Broadcast(ctx context.Context, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, channelPrefix+topic, data).Err()
}

// Subscribe hands back a pubsub handle for the topics; the gateway bridging
// to websockets/SSE consumes it. Callers own Close.
func (b *Broadcaster) Subscribe(ctx context.Context, topics ...string) *redis.PubSub {
	channels := make([]string, len(topics))
	for i, t := range topics {
		channels[i] = channelPrefix + t
	}
	return b.rdb.Subscribe(ctx, channels...)
}
