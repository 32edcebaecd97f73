package live

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Update is one availability change pushed to subscribers of an event's
// channel. Version lets clients discard out-of-order deliveries.
type Update struct {
	EventID   string    `json:"event_id"`
	Kind      string    `json:"kind"` // reserved, confirmed, released
	Units     int       `json:"units"`
	Available int       `json:"available,omitempty"`
	Version   int64     `json:"version,omitempty"`
	At        time.Time `json:"at"`
}

// Broadcaster fans availability changes out to interested clients.
type Broadcaster interface {
	Broadcast(ctx context.Context, update Update) error
}

// ChannelForEvent is the pub/sub channel carrying an event's updates.
func ChannelForEvent(eventID string) string {
	return "live:events:" + eventID
}

type redisBroadcaster struct {
	client *redis.Client
}

// NewRedisBroadcaster publishes updates over Redis pub/sub. WebSocket or SSE
// edges subscribe to the per-event channel and relay to browsers.
func NewRedisBroadcaster(client *redis.Client) Broadcaster {
	return &redisBroadcaster{client: client}
}

func (b *redisBroadcaster) Broadcast(ctx context.Context, update Update) error {
	if update.At.IsZero() {
		update.At = time.Now()
	}

	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal live update: %w", err)
	}

	if err := b.client.Publish(ctx, ChannelForEvent(update.EventID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish live update: %w", err)
	}
	return nil
}

// NoopBroadcaster drops every update. Used when Redis pub/sub is disabled.
type NoopBroadcaster struct{}

func (NoopBroadcaster) Broadcast(ctx context.Context, update Update) error {
	return nil
}
