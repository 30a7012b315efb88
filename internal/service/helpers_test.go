package service

import (
	"context"
	"testing"
	"time"

	"stream_ledger/internal/domain"
	"stream_ledger/internal/events"
	"stream_ledger/internal/ledger"
	"stream_ledger/internal/ledger/memory"
	"stream_ledger/internal/notify"
	"stream_ledger/internal/repository"

	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store *ledger.Store
	users *repository.UserRepository
	notes *notify.Recorder

	slots      *SlotService
	gifts      *GiftService
	payouts    *PayoutService
	friends    *FriendService
	moderation *ModerationService
	reaper     *ReaperService
	settings   *SettingsService
	revenue    *RevenueService
}

// newTestEnv builds every service on a memory store with create events
// dispatched inline.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := ledger.New(memory.New(), ledger.RetryConfig{
		MaxAttempts: 2000,
		BaseDelay:   time.Microsecond,
		MaxDelay:    2 * time.Millisecond,
	})
	t.Cleanup(store.Close)

	notes := &notify.Recorder{}
	audit := NewAuditService()
	env := &testEnv{
		store:      store,
		users:      repository.NewUserRepository(store),
		notes:      notes,
		slots:      NewSlotService(store, audit),
		gifts:      NewGiftService(store, notes),
		payouts:    NewPayoutService(store, audit, notes),
		friends:    NewFriendService(store),
		moderation: NewModerationService(store, audit, notes),
		reaper:     NewReaperService(store, 2),
		settings:   NewSettingsService(store, audit),
		revenue:    NewRevenueService(store),
	}

	d := events.New(0, 0)
	d.Attach(store)
	RegisterEventHandlers(d, env.gifts, env.moderation, env.reaper)
	return env
}

func (e *testEnv) seedUser(t *testing.T, id string, mutate func(u *domain.User)) {
	t.Helper()
	u := &domain.User{ID: id, DisplayName: id}
	if mutate != nil {
		mutate(u)
	}
	require.NoError(t, e.users.Create(context.Background(), u))
}

func (e *testEnv) user(t *testing.T, id string) *domain.User {
	t.Helper()
	u, err := e.users.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, u, "user %s", id)
	return u
}

func (e *testEnv) seedAdmin(t *testing.T) string {
	t.Helper()
	e.seedUser(t, "admin", func(u *domain.User) { u.IsAdmin = true })
	return "admin"
}

func (e *testEnv) initSettings(t *testing.T, premium, standard float64, slots int) {
	t.Helper()
	require.NoError(t, e.settings.Bootstrap(context.Background(), SettingsInput{
		PremiumPayoutPercentage:  premium,
		StandardPayoutPercentage: standard,
		MaxPremiumSlots:          slots,
	}))
}

func (e *testEnv) readSettings(t *testing.T) *domain.Settings {
	t.Helper()
	var s domain.Settings
	require.NoError(t, e.store.Get(context.Background(), ledger.Doc(repository.CollSettings, domain.SettingsID), &s))
	return &s
}

func (e *testEnv) put(t *testing.T, ref ledger.Ref, v any) {
	t.Helper()
	require.NoError(t, e.store.RunTransaction(context.Background(), func(ctx context.Context, tx ledger.Tx) error {
		return tx.Set(ref, v)
	}))
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
