// Package notify delivers user-facing alerts such as moderation warnings.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"stream_ledger/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

// Channel is the Redis pub/sub channel notifications travel on.
const Channel = "notifications"

// Notification kinds
const (
	KindWarning = "moderation_warning"
	KindBan     = "moderation_ban"
	KindUnban   = "moderation_unban"
	KindGift    = "gift_received"
	KindPayout  = "payout_processed"
)

type Notification struct {
	UserID    string         `json:"userId"`
	Kind      string         `json:"kind"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Notifier sends a notification to one user. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// RedisNotifier publishes notifications for any replica's push hub to relay.
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client, channel: Channel}
}

func (r *RedisNotifier) Notify(ctx context.Context, n Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, payload).Err()
}

// Subscribe decodes notifications from the channel and passes them to fn
// until ctx is cancelled.
func Subscribe(ctx context.Context, client *redis.Client, fn func(Notification)) error {
	sub := client.Subscribe(ctx, Channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var n Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				logger.Warn("bad notification payload", "error", err)
				continue
			}
			fn(n)
		}
	}
}

// LogNotifier only logs. It stands in when nothing can deliver.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) error {
	logger.Info("notification", "user_id", n.UserID, "kind", n.Kind, "title", n.Title)
	return nil
}

// Fanout sends to every notifier and joins their errors.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, nt := range f {
		if err := nt.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

// Sent returns a copy of everything recorded so far.
func (r *Recorder) Sent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.sent...)
}
