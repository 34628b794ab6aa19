// Package notifications fans inbox changes out to connected dashboards over Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"kolboard/internal/observability"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	userChannelPrefix = "notifications:user:"
	broadcastChannel  = "notifications:broadcast"
)

// Event types carried on the user channel.
const (
	EventCreated     = "notification_created"
	EventUnreadCount = "unread_count"
)

// Event is the payload published on a user's channel.
type Event struct {
	Type           string `json:"type"`
	NotificationID uint   `json:"notification_id,omitempty"`
	UnreadCount    int64  `json:"unread_count"`
}

// Notifier publishes inbox events into Redis channels. A nil Redis client
// turns every call into a no-op.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Enabled reports whether events actually leave the process.
func (n *Notifier) Enabled() bool {
	return n != nil && n.rdb != nil
}

// PublishUser sends an event to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uuid.UUID, ev Event) error {
	if !n.Enabled() {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// PublishBroadcast sends an event to every connected user.
func (n *Notifier) PublishBroadcast(ctx context.Context, ev Event) error {
	if !n.Enabled() {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, broadcastChannel, payload).Err()
}

// Subscribe streams events for one user, including broadcasts, until ctx is
// done. The returned channel is closed when the subscription ends.
func (n *Notifier) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan Event, error) {
	if !n.Enabled() {
		return nil, fmt.Errorf("notifications: redis is not configured")
	}
	sub := n.rdb.Subscribe(ctx, UserChannel(userID), broadcastChannel)
	// Wait for the subscription confirmation so no event published right after is lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan Event, 16)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					observability.Logger.WarnContext(ctx, "dropping malformed notification event",
						slog.String("channel", msg.Channel),
						slog.String("error", err.Error()),
					)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// StartPatternSubscriber subscribes to every user channel and the broadcast
// channel and calls onMessage for each incoming event.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(userID uuid.UUID, ev Event),
) error {
	if !n.Enabled() {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*", broadcastChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
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
				func() {
					defer func() {
						if r := recover(); r != nil {
							observability.Logger.Error("panic in notification subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					var ev Event
					if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
						return
					}
					userID, _ := ParseUserChannel(msg.Channel)
					onMessage(userID, ev)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uuid.UUID) string {
	return userChannelPrefix + userID.String()
}

// ParseUserChannel extracts the user id from a user channel name. Broadcast
// and foreign channels yield uuid.Nil and false.
func ParseUserChannel(channel string) (uuid.UUID, bool) {
	raw, ok := strings.CutPrefix(channel, userChannelPrefix)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
