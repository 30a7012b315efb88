package ledger

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"stream_ledger/internal/logger"
)

// RetryConfig controls the optimistic retry loop.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultRetryConfig suits interactive callers.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 25,
		BaseDelay:   5 * time.Millisecond,
		MaxDelay:    250 * time.Millisecond,
		Multiplier:  1.6,
	}
}

// CreateHook is invoked once per document created by a committed transaction.
// Hooks must not block.
type CreateHook func(ctx context.Context, ref Ref)

// Store runs transactions against a Backend.
type Store struct {
	backend Backend
	retry   RetryConfig

	mu    sync.RWMutex
	hooks []CreateHook
}

// New wraps backend with the retry loop described by cfg.
func New(backend Backend, cfg RetryConfig) *Store {
	def := DefaultRetryConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = def.Multiplier
	}
	return &Store{backend: backend, retry: cfg}
}

// OnCreate registers a hook for committed document creations.
func (s *Store) OnCreate(h CreateHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, h)
}

// RunTransaction executes fn atomically. When the read set turns out to be
// stale, the body is discarded and re-run against fresh reads. An error
// returned by fn aborts the transaction without writing anything; it is
// still retried if the reads it was based on were stale.
func (s *Store) RunTransaction(ctx context.Context, fn TxFunc) error {
	start := time.Now()
	delay := s.retry.BaseDelay

	for attempt := 1; ; attempt++ {
		t := newTxn(s.backend)

		err := fn(ctx, t)
		if err != nil {
			// only a consistent snapshot may produce a business failure
			if verr := s.backend.Commit(ctx, t.readVersions(), nil); errors.Is(verr, ErrConflict) && attempt < s.retry.MaxAttempts {
				conflictsTotal.Inc()
				if serr := sleep(ctx, jitter(delay)); serr != nil {
					return serr
				}
				delay = s.nextDelay(delay)
				continue
			}
			observe(outcomeAborted, attempt, start)
			return err
		}

		err = s.backend.Commit(ctx, t.readVersions(), t.writeList())
		if err == nil {
			observe(outcomeCommitted, attempt, start)
			s.publish(ctx, t.created())
			return nil
		}
		if !errors.Is(err, ErrConflict) {
			observe(outcomeFailed, attempt, start)
			return err
		}

		conflictsTotal.Inc()
		if attempt >= s.retry.MaxAttempts {
			observe(outcomeContention, attempt, start)
			logger.Warn("ledger transaction gave up", "attempts", attempt)
			return ErrContention
		}
		if serr := sleep(ctx, jitter(delay)); serr != nil {
			return serr
		}
		delay = s.nextDelay(delay)
	}
}

// Get reads one document outside of a transaction.
func (s *Store) Get(ctx context.Context, ref Ref, dst any) error {
	doc, err := s.backend.Read(ctx, ref)
	if err != nil {
		return err
	}
	return doc.Decode(dst)
}

// List runs a non-transactional query. Sweeps use it to select work items and
// must re-check every item inside a transaction.
func (s *Store) List(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	return s.backend.List(ctx, collection, filters)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

func (s *Store) Close() {
	s.backend.Close()
}

func (s *Store) publish(ctx context.Context, refs []Ref) {
	if len(refs) == 0 {
		return
	}
	s.mu.RLock()
	hooks := s.hooks
	s.mu.RUnlock()

	detached := context.WithoutCancel(ctx)
	for _, ref := range refs {
		for _, h := range hooks {
			h(detached, ref)
		}
	}
}

func (s *Store) nextDelay(d time.Duration) time.Duration {
	next := time.Duration(float64(d) * s.retry.Multiplier)
	if next > s.retry.MaxDelay {
		return s.retry.MaxDelay
	}
	return next
}

func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d/2 + rand.N(d/2+1)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
