package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"stream_ledger/internal/ledger"
	"stream_ledger/internal/migrations"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildListQuery(t *testing.T) {
	cutoff := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	query, args, err := buildListQuery("messages", []ledger.Filter{
		ledger.Eq("isEphemeral", true),
		ledger.Before("deleteAt", cutoff),
	})
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT id, data, version FROM documents WHERE collection = $1`+
			` AND data->($2::text) = $3::jsonb`+
			` AND (data->>($4::text))::timestamptz <= $5 ORDER BY id`,
		query)
	assert.Equal(t, []any{"messages", "isEphemeral", "true", "deleteAt", cutoff}, args)
}

func TestBuildListQuery_RejectsBadFilter(t *testing.T) {
	_, _, err := buildListQuery("messages", []ledger.Filter{{Field: "deleteAt", Op: ledger.OpBefore, Value: "yesterday"}})
	require.Error(t, err)

	_, _, err = buildListQuery("messages", []ledger.Filter{{Field: "x", Op: "like", Value: "y"}})
	require.Error(t, err)
}

func TestLostInsert(t *testing.T) {
	assert.ErrorIs(t, lostInsert(ledger.WriteCreate, false), ledger.ErrAlreadyExists)
	assert.ErrorIs(t, lostInsert(ledger.WriteCreate, true), ledger.ErrConflict)
	assert.ErrorIs(t, lostInsert(ledger.WriteSet, false), ledger.ErrConflict)
	assert.ErrorIs(t, lostInsert(ledger.WriteSet, true), ledger.ErrConflict)
}

type counter struct {
	N int `json:"n"`
}

// Integration-style test: runs only if DATABASE_URL env is set.
func TestStore_ConcurrentIncrements(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	require.NoError(t, migrations.Up(dsn))

	ctx := context.Background()
	backend, err := Connect(ctx, dsn)
	require.NoError(t, err)
	store := ledger.New(backend, ledger.RetryConfig{MaxAttempts: 200})
	defer store.Close()

	ref := ledger.Doc("test_counters", uuid.NewString())
	require.NoError(t, store.RunTransaction(ctx, func(ctx context.Context, tx ledger.Tx) error {
		return tx.Create(ref, counter{})
	}))

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.RunTransaction(ctx, func(ctx context.Context, tx ledger.Tx) error {
				var c counter
				if err := tx.Get(ctx, ref, &c); err != nil {
					return err
				}
				c.N++
				return tx.Set(ref, c)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var got counter
	require.NoError(t, store.Get(ctx, ref, &got))
	assert.Equal(t, workers, got.N)

	err = store.RunTransaction(ctx, func(ctx context.Context, tx ledger.Tx) error {
		return tx.Create(ref, counter{})
	})
	assert.ErrorIs(t, err, ledger.ErrAlreadyExists)
}
