package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"stream_ledger/internal/apperr"
	"stream_ledger/internal/domain"
	"stream_ledger/internal/ledger"
	"stream_ledger/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedGift(t *testing.T, env *testEnv, id string, cost int64) {
	t.Helper()
	require.NoError(t, repository.NewGiftRepository(env.store).Create(context.Background(), &domain.Gift{ID: id, Name: id, Cost: cost}))
}

func TestSendGift_ThreeOneCoinGiftsToStandardReceiver(t *testing.T) {
	env := newTestEnv(t)
	env.initSettings(t, 0.8, 0.5, 3)
	env.seedUser(t, "sender", func(u *domain.User) { u.Coins = 5 })
	env.seedUser(t, "receiver", nil)
	seedGift(t, env, "rose", 1)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		sg, err := env.gifts.Send(ctx, "sender", "receiver", "rose")
		require.NoError(t, err)
		ids = append(ids, sg.ID)
	}

	assert.Equal(t, int64(2), env.user(t, "sender").Coins)
	assert.Equal(t, domain.Money(150), env.user(t, "receiver").Balance)

	// redelivery of the same events credits nothing more
	for _, id := range ids {
		require.NoError(t, env.gifts.CreditSentGift(ctx, id))
	}
	assert.Equal(t, domain.Money(150), env.user(t, "receiver").Balance)

	var sg domain.SentGift
	require.NoError(t, env.store.Get(ctx, ledger.Doc(repository.CollSentGifts, ids[0]), &sg))
	assert.True(t, sg.Credited)
	assert.Equal(t, domain.Money(50), sg.CreditedAmount)
	assert.Len(t, env.notes.Sent(), 3)
}

func TestSendGift_ConcurrentSendsNeverOverspend(t *testing.T) {
	env := newTestEnv(t)
	env.initSettings(t, 0.8, 0.5, 3)
	env.seedUser(t, "sender", func(u *domain.User) { u.Coins = 10 })
	env.seedUser(t, "receiver", nil)
	seedGift(t, env, "cake", 3)

	var ok, failed int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.gifts.Send(context.Background(), "sender", "receiver", "cake")
			if err == nil {
				atomic.AddInt32(&ok, 1)
				return
			}
			assert.True(t, apperr.Is(err, apperr.CodeFailedPrecondition), "unexpected error: %v", err)
			atomic.AddInt32(&failed, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(3), ok)
	assert.Equal(t, int32(17), failed)
	assert.Equal(t, int64(10-3*3), env.user(t, "sender").Coins)
	assert.Equal(t, domain.Money(3*150), env.user(t, "receiver").Balance)
}

func TestSendGift_Rejections(t *testing.T) {
	env := newTestEnv(t)
	env.initSettings(t, 0.8, 0.5, 3)
	env.seedUser(t, "sender", func(u *domain.User) { u.Coins = 1 })
	env.seedUser(t, "receiver", nil)
	seedGift(t, env, "car", 50)
	ctx := context.Background()

	_, err := env.gifts.Send(ctx, "sender", "receiver", "car")
	assert.True(t, apperr.Is(err, apperr.CodeFailedPrecondition))

	_, err = env.gifts.Send(ctx, "sender", "receiver", "missing")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	_, err = env.gifts.Send(ctx, "sender", "ghost", "car")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	_, err = env.gifts.Send(ctx, "sender", "sender", "car")
	assert.True(t, apperr.Is(err, apperr.CodeInvalidArgument))

	assert.Equal(t, int64(1), env.user(t, "sender").Coins)
}

func TestCreditSentGift_PremiumRateAndPlatformShare(t *testing.T) {
	env := newTestEnv(t)
	env.initSettings(t, 0.8, 0.5, 3)
	env.seedUser(t, "sender", func(u *domain.User) { u.Coins = 10 })
	env.seedUser(t, "star", func(u *domain.User) {
		u.IsPremiumAccount = true
		u.PremiumSlotID = "s1"
	})
	seedGift(t, env, "crown", 2)
	ctx := context.Background()

	_, err := env.gifts.Send(ctx, "sender", "star", "crown")
	require.NoError(t, err)
	assert.Equal(t, domain.Money(160), env.user(t, "star").Balance)

	n, err := env.revenue.Aggregate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entries, err := env.store.List(ctx, repository.CollPlatformRevenue)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	var entry domain.PlatformRevenue
	require.NoError(t, entries[0].Decode(&entry))
	assert.Equal(t, domain.RevenueGiftShare, entry.Source)
	assert.Equal(t, domain.Money(40), entry.Amount)

	summary, err := repository.NewRevenueRepository(env.store).GetSummary(ctx, domain.RevenueMonth(entry.Timestamp))
	require.NoError(t, err)
	assert.Equal(t, domain.Money(40), summary.Total)
	assert.Equal(t, domain.Money(40), summary.BySource[domain.RevenueGiftShare])

	// a second pass finds nothing new
	n, err = env.revenue.Aggregate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSweepUncredited_RecoversFailedCredit(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "sender", func(u *domain.User) { u.Coins = 4 })
	env.seedUser(t, "receiver", nil)
	seedGift(t, env, "rose", 1)
	ctx := context.Background()

	// without settings the credit reaction fails and the gift stays uncredited
	_, err := env.gifts.Send(ctx, "sender", "receiver", "rose")
	require.NoError(t, err)
	assert.Equal(t, domain.Money(0), env.user(t, "receiver").Balance)

	env.initSettings(t, 0.8, 0.5, 3)
	n, err := env.gifts.SweepUncredited(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.Money(50), env.user(t, "receiver").Balance)

	n, err = env.gifts.SweepUncredited(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
