package scheduler

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunOnce_RunsAllJobsDespiteFailures(t *testing.T) {
	s := New("@every 1m", nil, time.Second)
	var order []string
	s.Add("a", func(context.Context) error { order = append(order, "a"); return errors.New("boom") })
	s.Add("b", func(context.Context) error { order = append(order, "b"); return nil })

	s.RunOnce(context.Background())
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestRunOnce_SkipsHeldLease(t *testing.T) {
	lease := NewLocalLease()
	release, ok, err := lease.Acquire(context.Background(), "reaper", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	s := New("@every 1m", lease, time.Second)
	ran := false
	s.Add("reaper", func(context.Context) error { ran = true; return nil })

	s.RunOnce(context.Background())
	assert.False(t, ran)

	release()
	s.RunOnce(context.Background())
	assert.True(t, ran)
}

func TestStart_RejectsBadSpec(t *testing.T) {
	s := New("every now and then", nil, time.Second)
	assert.Error(t, s.Start(context.Background()))
}

// Integration-style test: runs only if REDIS_ADDR env is set.
func TestRedisLease_Exclusive(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	ctx := context.Background()

	a, b := NewRedisLease(client), NewRedisLease(client)
	name := "test-" + time.Now().Format("150405.000000")

	release, ok, err := a.Acquire(ctx, name, 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = b.Acquire(ctx, name, 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	release()
	releaseB, ok, err := b.Acquire(ctx, name, 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	releaseB()
}
