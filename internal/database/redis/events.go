package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

// EventPublisher broadcasts reminder change events on a pub/sub channel
// so list views and widgets can refresh without polling.
type EventPublisher struct {
	client  *redis.Client
	channel string
}

func NewEventPublisher(client *redis.Client, channel string) *EventPublisher {
	return &EventPublisher{client: client, channel: channel}
}

type changeEvent struct {
	ReminderID int64     `json:"reminder_id"`
	ChangedAt  time.Time `json:"changed_at"`
}

func (p *EventPublisher) ReminderChanged(ctx context.Context, id int64) error {
	payload, err := json.Marshal(changeEvent{ReminderID: id, ChangedAt: time.Now()})
	if err != nil {
		return err
	}

	return p.client.Publish(ctx, p.channel, payload).Err()
}
