package service

import (
	"context"
	"sync"
	"testing"

	"stream_ledger/internal/apperr"
	"stream_ledger/internal/domain"
	"stream_ledger/internal/ledger"
	"stream_ledger/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payoutStatus(t *testing.T, env *testEnv, id string) domain.PayoutStatus {
	t.Helper()
	var p domain.PayoutRequest
	require.NoError(t, env.store.Get(context.Background(), ledger.Doc(repository.CollPayoutRequests, id), &p))
	return p.Status
}

func TestRequestPayout_EscrowsBalance(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1", func(u *domain.User) { u.Balance = 10000 })
	ctx := context.Background()

	req, err := env.payouts.Request(ctx, "u1", 2500, domain.PayoutPayPal, map[string]any{"email": "u1@example.com"})
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutPending, payoutStatus(t, env, req.ID))
	assert.Equal(t, domain.Money(7500), env.user(t, "u1").Balance)

	_, err = env.payouts.Request(ctx, "u1", 7501, domain.PayoutBankTransfer, nil)
	assert.True(t, apperr.Is(err, apperr.CodeFailedPrecondition))

	_, err = env.payouts.Request(ctx, "u1", 0, domain.PayoutPayPal, nil)
	assert.True(t, apperr.Is(err, apperr.CodeInvalidArgument))

	_, err = env.payouts.Request(ctx, "u1", 100, "crypto", nil)
	assert.True(t, apperr.Is(err, apperr.CodeInvalidArgument))

	assert.Equal(t, domain.Money(7500), env.user(t, "u1").Balance)
}

func TestProcessPayout_ApproveRecordsFee(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t)
	env.seedUser(t, "u1", func(u *domain.User) { u.Balance = 10000 })
	ctx := context.Background()

	req, err := env.payouts.Request(ctx, "u1", 5000, domain.PayoutPayPal, nil)
	require.NoError(t, err)

	require.NoError(t, env.payouts.Process(ctx, admin, req.ID, domain.PayoutApprove))
	assert.Equal(t, domain.PayoutCompleted, payoutStatus(t, env, req.ID))
	assert.Equal(t, domain.Money(5000), env.user(t, "u1").Balance)

	docs, err := env.store.List(ctx, repository.CollPlatformRevenue, ledger.Eq("source", domain.RevenuePayoutFee))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	var fee domain.PlatformRevenue
	require.NoError(t, docs[0].Decode(&fee))
	assert.Equal(t, domain.Money(500), fee.Amount)

	// terminal requests are left untouched
	err = env.payouts.Process(ctx, admin, req.ID, domain.PayoutReject)
	assert.True(t, apperr.Is(err, apperr.CodeFailedPrecondition))
	assert.Equal(t, domain.Money(5000), env.user(t, "u1").Balance)
	assert.Equal(t, domain.PayoutCompleted, payoutStatus(t, env, req.ID))
}

func TestProcessPayout_ZeroFeeWaivesRevenue(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t)
	env.seedUser(t, "u1", func(u *domain.User) { u.Balance = 10000 })
	ctx := context.Background()
	zero := 0.0
	require.NoError(t, env.settings.Bootstrap(ctx, SettingsInput{
		PremiumPayoutPercentage:  0.8,
		StandardPayoutPercentage: 0.5,
		MaxPremiumSlots:          1,
		PlatformFeePercentage:    &zero,
	}))

	req, err := env.payouts.Request(ctx, "u1", 5000, domain.PayoutPayPal, nil)
	require.NoError(t, err)
	require.NoError(t, env.payouts.Process(ctx, admin, req.ID, domain.PayoutApprove))
	assert.Equal(t, domain.PayoutCompleted, payoutStatus(t, env, req.ID))

	docs, err := env.store.List(ctx, repository.CollPlatformRevenue, ledger.Eq("source", domain.RevenuePayoutFee))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestProcessPayout_RejectRefunds(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t)
	env.seedUser(t, "u1", func(u *domain.User) { u.Balance = 1000 })
	ctx := context.Background()

	req, err := env.payouts.Request(ctx, "u1", 1000, domain.PayoutBankTransfer, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(0), env.user(t, "u1").Balance)

	require.NoError(t, env.payouts.Process(ctx, admin, req.ID, domain.PayoutReject))
	assert.Equal(t, domain.PayoutRejected, payoutStatus(t, env, req.ID))
	assert.Equal(t, domain.Money(1000), env.user(t, "u1").Balance)

	err = env.payouts.Process(ctx, admin, req.ID, domain.PayoutReject)
	assert.True(t, apperr.Is(err, apperr.CodeFailedPrecondition))
	assert.Equal(t, domain.Money(1000), env.user(t, "u1").Balance)
}

func TestProcessPayout_Guards(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t)
	env.seedUser(t, "u1", func(u *domain.User) { u.Balance = 1000 })
	ctx := context.Background()

	req, err := env.payouts.Request(ctx, "u1", 100, domain.PayoutPayPal, nil)
	require.NoError(t, err)

	err = env.payouts.Process(ctx, "u1", req.ID, domain.PayoutApprove)
	assert.True(t, apperr.Is(err, apperr.CodePermissionDenied))

	err = env.payouts.Process(ctx, admin, "nope", domain.PayoutApprove)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	err = env.payouts.Process(ctx, admin, req.ID, "maybe")
	assert.True(t, apperr.Is(err, apperr.CodeInvalidArgument))
}

func TestProcessPayout_ConcurrentAdminsSettleOnce(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t)
	env.seedUser(t, "u1", func(u *domain.User) { u.Balance = 1000 })
	ctx := context.Background()

	req, err := env.payouts.Request(ctx, "u1", 1000, domain.PayoutPayPal, nil)
	require.NoError(t, err)

	actions := []domain.PayoutAction{domain.PayoutApprove, domain.PayoutReject, domain.PayoutApprove, domain.PayoutReject}
	errs := make([]error, len(actions))
	var wg sync.WaitGroup
	for i, a := range actions {
		wg.Add(1)
		go func(i int, a domain.PayoutAction) {
			defer wg.Done()
			errs[i] = env.payouts.Process(ctx, admin, req.ID, a)
		}(i, a)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperr.Is(err, apperr.CodeFailedPrecondition), "got %v", err)
	}
	assert.Equal(t, 1, succeeded)

	switch payoutStatus(t, env, req.ID) {
	case domain.PayoutCompleted:
		assert.Equal(t, domain.Money(0), env.user(t, "u1").Balance)
	case domain.PayoutRejected:
		assert.Equal(t, domain.Money(1000), env.user(t, "u1").Balance)
	default:
		t.Fatal("request not settled")
	}
}
