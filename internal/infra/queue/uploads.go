package queue

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/bryanwahyu/lexiguard/internal/application/uploads"
)

// UploadNotification is the message the upload flow publishes after a
// document lands in object storage. Unknown fields are rejected.
type UploadNotification struct {
	Identity string `json:"identity"`
	FileKey  string `json:"file_key"`
}

// UploadConsumer subscribes to the upload channel and records the
// latest file key per identity in the pending registry.
type UploadConsumer struct {
	client  *redis.Client
	channel string
	pending *uploads.Pending
}

func NewUploadConsumer(client *redis.Client, channel string, pending *uploads.Pending) *UploadConsumer {
	return &UploadConsumer{client: client, channel: channel, pending: pending}
}

// Run blocks consuming messages until ctx is cancelled.
func (c *UploadConsumer) Run(ctx context.Context) error {
	sub := c.client.Subscribe(ctx, c.channel)
	defer sub.Close()

	log.Printf("queue: listening for upload notifications on %q", c.channel)
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			c.handle(msg.Payload)
		}
	}
}

// handle validates one notification; malformed messages are dropped, not fatal.
func (c *UploadConsumer) handle(payload string) {
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.DisallowUnknownFields()

	var n UploadNotification
	if err := dec.Decode(&n); err != nil {
		log.Printf("queue: dropping malformed upload notification: %v", err)
		return
	}
	if strings.TrimSpace(n.Identity) == "" || strings.TrimSpace(n.FileKey) == "" {
		log.Printf("queue: dropping upload notification with missing fields")
		return
	}

	c.pending.Set(n.Identity, n.FileKey)
	log.Printf("queue: queued document for identity=%s", n.Identity)
}
