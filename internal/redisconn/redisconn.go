// Package redisconn opens the shared Redis client.
package redisconn

import (
	"context"
	"fmt"
	"time"

	"stream_ledger/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

// Connect returns a client for addr, or nil, nil when addr is empty.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	logger.Info("redis connected", "addr", addr, "db", db)
	return client, nil
}
