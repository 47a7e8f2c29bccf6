// Package revalidate tells the presentation layer which paths went stale.
// Signals go out on a Redis pub/sub channel; a frontend worker drops the
// cached render for each path it receives.
package revalidate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ms-eventhub/internal/logger"

	"github.com/go-redis/redis/v8"
)

type Signal struct {
	Path string    `json:"path"`
	At   time.Time `json:"at"`
}

type Notifier struct {
	client  *redis.Client
	channel string
	logger  *logger.Logger
}

func NewNotifier(client *redis.Client, channel string, log *logger.Logger) *Notifier {
	if log == nil {
		log = logger.Discard()
	}
	return &Notifier{client: client, channel: channel, logger: log}
}

func (n *Notifier) Revalidate(ctx context.Context, path string) error {
	if path == "" {
		path = "/"
	}
	payload, err := json.Marshal(Signal{Path: path, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		n.logger.Error("REVALIDATE", fmt.Sprintf("Failed to publish %s: %v", path, err))
		return err
	}
	n.logger.Debug("REVALIDATE", fmt.Sprintf("Published %s on %s", path, n.channel))
	return nil
}

// Listen delivers signals to fn until ctx is cancelled.
func (n *Notifier) Listen(ctx context.Context, fn func(Signal)) error {
	sub := n.client.Subscribe(ctx, n.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var s Signal
			if err := json.Unmarshal([]byte(msg.Payload), &s); err != nil {
				n.logger.Warn("REVALIDATE", fmt.Sprintf("Dropping malformed signal: %v", err))
				continue
			}
			fn(s)
		}
	}
}

// Noop is used when Redis is disabled.
type Noop struct{}

func (Noop) Revalidate(context.Context, string) error { return nil }
