// Package notifications publishes moderation events over Redis pub/sub so
// staff tooling can follow new submissions as they arrive.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Moderation channels.
const (
	ChannelComments = "moderation:comments"
	ChannelContest  = "moderation:contest"

	channelPattern = "moderation:*"
)

// Event kinds.
const (
	KindCommentPending = "comment_pending"
	KindContestEntry   = "contest_entry"
)

// Event describes a submission waiting for staff attention.
type Event struct {
	Kind    string    `json:"kind"`
	ID      uint      `json:"id"`
	PostID  uint      `json:"post_id,omitempty"`
	Summary string    `json:"summary"`
	At      time.Time `json:"at"`
}

// Notifier provides helpers to publish events into Redis channels. A nil
// Notifier, or one without a client, drops events silently.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish sends ev to channel.
func (n *Notifier) Publish(ctx context.Context, channel string, ev Event) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, channel, payload).Err()
}

// Subscribe listens on every moderation channel and calls onEvent for each
// event until ctx is done. It returns once the subscription is confirmed.
func (n *Notifier) Subscribe(ctx context.Context, onEvent func(channel string, ev Event)) error {
	if n == nil || n.rdb == nil {
		return fmt.Errorf("notifier has no redis client")
	}
	sub := n.rdb.PSubscribe(ctx, channelPattern)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", channelPattern, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if !strings.HasPrefix(msg.Channel, "moderation:") {
					continue
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Printf("notifications: dropping malformed event on %s: %v", msg.Channel, err)
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in moderation subscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onEvent(msg.Channel, ev)
				}()
			}
		}
	}()

	return nil
}
