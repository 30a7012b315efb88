// Package ws pushes notifications to connected users over websockets.
package ws

import (
	"context"
	"sync"

	"stream_ledger/internal/logger"
	"stream_ledger/internal/notify"

	redis "github.com/redis/go-redis/v9"
)

// Hub tracks live connections per user. A user may hold several.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}
	set[c] = struct{}{}
	logger.Debug("ws client registered", "user_id", c.UserID, "connections", len(set))
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
}

// Online reports how many connections a user has.
func (h *Hub) Online(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Notify delivers to this replica's connections only. Slow clients miss
// the frame rather than block the caller.
func (h *Hub) Notify(_ context.Context, n notify.Notification) error {
	msg, err := encode(MsgNotification, n)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[n.UserID] {
		select {
		case c.Send <- msg:
		default:
			logger.Warn("ws send buffer full, dropping notification", "user_id", n.UserID, "kind", n.Kind)
		}
	}
	return nil
}

// RunRedis relays notifications published by any replica until ctx ends.
func (h *Hub) RunRedis(ctx context.Context, client *redis.Client) error {
	return notify.Subscribe(ctx, client, func(n notify.Notification) {
		_ = h.Notify(ctx, n)
	})
}
