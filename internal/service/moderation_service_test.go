package service

import (
	"context"
	"testing"
	"time"

	"stream_ledger/internal/apperr"
	"stream_ledger/internal/domain"
	"stream_ledger/internal/ledger"
	"stream_ledger/internal/notify"
	"stream_ledger/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func report(t *testing.T, env *testEnv, id string) *domain.Report {
	t.Helper()
	var r domain.Report
	require.NoError(t, env.store.Get(context.Background(), ledger.Doc(repository.CollReports, id), &r))
	return &r
}

func TestProcessReport_TieredTraceAndRestartAfterExpiry(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "reporter", nil)
	env.seedUser(t, "target", nil)
	ctx := context.Background()

	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	env.moderation.now = fixedClock(start)

	var (
		actions []domain.ModerationAction
		counts  []int
		banned  []bool
	)
	for i := 0; i < 3; i++ {
		r, err := env.moderation.SubmitReport(ctx, "reporter", "target", domain.EntityUser, "spam", "")
		require.NoError(t, err)
		resolved := report(t, env, r.ID)
		assert.Equal(t, domain.ReportResolved, resolved.Status)
		assert.Equal(t, "target", resolved.ResolvedUserID)

		u := env.user(t, "target")
		actions = append(actions, resolved.Action)
		counts = append(counts, u.WarningCount)
		banned = append(banned, u.IsBanned)
	}
	assert.Equal(t, []domain.ModerationAction{domain.ActionWarning1, domain.ActionWarning2, domain.ActionTemporaryBan}, actions)
	assert.Equal(t, []int{1, 2, 0}, counts)
	assert.Equal(t, []bool{false, false, true}, banned)

	violations, err := env.store.List(ctx, repository.CollViolations, ledger.Eq("userId", "target"))
	require.NoError(t, err)
	assert.Len(t, violations, 3)

	status, err := env.moderation.CheckBanStatus(ctx, "target")
	require.NoError(t, err)
	assert.True(t, status.IsBanned)
	require.NotNil(t, status.BanExpiresAt)
	assert.Equal(t, start.Add(domain.TempBanDuration), *status.BanExpiresAt)

	// past expiry the ban lifts on read and the ladder restarts
	env.moderation.now = fixedClock(start.Add(domain.TempBanDuration + time.Minute))
	status, err = env.moderation.CheckBanStatus(ctx, "target")
	require.NoError(t, err)
	assert.False(t, status.IsBanned)
	assert.Nil(t, status.BanExpiresAt)
	assert.False(t, env.user(t, "target").IsBanned)

	r, err := env.moderation.SubmitReport(ctx, "reporter", "target", domain.EntityUser, "spam", "")
	require.NoError(t, err)
	assert.Equal(t, domain.ActionWarning1, report(t, env, r.ID).Action)
	assert.Equal(t, 1, env.user(t, "target").WarningCount)

	kinds := map[string]int{}
	for _, n := range env.notes.Sent() {
		kinds[n.Kind]++
	}
	assert.Equal(t, 3, kinds[notify.KindWarning])
	assert.Equal(t, 1, kinds[notify.KindBan])
}

func TestProcessReport_ExpiredBanRestartsWithoutCheck(t *testing.T) {
	env := newTestEnv(t)
	expired := time.Now().Add(-time.Hour)
	env.seedUser(t, "reporter", nil)
	env.seedUser(t, "target", func(u *domain.User) {
		u.IsBanned = true
		u.BanExpiresAt = &expired
		u.BanReason = "old"
	})

	r, err := env.moderation.SubmitReport(context.Background(), "reporter", "target", domain.EntityUser, "spam", "")
	require.NoError(t, err)
	assert.Equal(t, domain.ActionWarning1, report(t, env, r.ID).Action)

	u := env.user(t, "target")
	assert.False(t, u.IsBanned)
	assert.Equal(t, 1, u.WarningCount)
}

func TestProcessReport_DuringTempBanIsPermanent(t *testing.T) {
	env := newTestEnv(t)
	until := time.Now().Add(24 * time.Hour)
	env.seedUser(t, "reporter", nil)
	env.seedUser(t, "target", func(u *domain.User) {
		u.IsBanned = true
		u.BanExpiresAt = &until
	})
	ctx := context.Background()

	r, err := env.moderation.SubmitReport(ctx, "reporter", "target", domain.EntityUser, "harassment", "")
	require.NoError(t, err)
	assert.Equal(t, domain.ActionPermanentBan, report(t, env, r.ID).Action)

	u := env.user(t, "target")
	assert.True(t, u.IsBanned)
	assert.Nil(t, u.BanExpiresAt)
	assert.Equal(t, 0, u.WarningCount)

	// further reports change nothing
	r, err = env.moderation.SubmitReport(ctx, "reporter", "target", domain.EntityUser, "spam", "")
	require.NoError(t, err)
	assert.Equal(t, domain.ActionNone, report(t, env, r.ID).Action)
	assert.Equal(t, "harassment", env.user(t, "target").BanReason)
}

func TestProcessReport_ResolvesOwners(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "reporter", nil)
	env.seedUser(t, "creator", nil)
	env.seedUser(t, "chatter", nil)
	ctx := context.Background()

	env.put(t, ledger.Doc(repository.CollVideos, "v1"), domain.OwnedEntity{UserID: "creator"})
	env.put(t, ledger.Doc(repository.CollStreams, "s1"), domain.OwnedEntity{UserID: "creator"})
	env.put(t, ledger.Doc(repository.CollComments, "c1"), domain.OwnedEntity{UserID: "nobody"})
	msg, err := env.reaper.PostMessage(ctx, "chatter", "room1", "buy my stuff", 0)
	require.NoError(t, err)

	cases := []struct {
		typ   domain.EntityType
		id    string
		owner string
	}{
		{domain.EntityVideo, "v1", "creator"},
		{domain.EntityStream, "s1", "creator"},
		{domain.EntityMessage, msg.ID, "chatter"},
		{domain.EntityComment, "c1", ""},
		{domain.EntityVideo, "missing", ""},
	}
	for _, tc := range cases {
		r, err := env.moderation.SubmitReport(ctx, "reporter", tc.id, tc.typ, "spam", "")
		require.NoError(t, err)
		got := report(t, env, r.ID)
		if tc.owner == "" {
			assert.Equal(t, domain.ReportRejected, got.Status, "%s/%s", tc.typ, tc.id)
			assert.Equal(t, domain.RejectNoUserFound, got.RejectionReason)
			continue
		}
		assert.Equal(t, domain.ReportResolved, got.Status, "%s/%s", tc.typ, tc.id)
		assert.Equal(t, tc.owner, got.ResolvedUserID)
	}

	assert.Equal(t, 2, env.user(t, "creator").WarningCount)
	assert.Equal(t, 1, env.user(t, "chatter").WarningCount)
}

func TestProcessReport_IgnoresProcessedReports(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "reporter", nil)
	env.seedUser(t, "target", nil)
	ctx := context.Background()

	r, err := env.moderation.SubmitReport(ctx, "reporter", "target", domain.EntityUser, "spam", "")
	require.NoError(t, err)
	require.NoError(t, env.moderation.ProcessReport(ctx, r.ID))
	require.NoError(t, env.moderation.ProcessReport(ctx, "unknown"))

	assert.Equal(t, 1, env.user(t, "target").WarningCount)

	n, err := env.moderation.SweepPending(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSubmitReport_Validation(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "reporter", nil)
	ctx := context.Background()

	_, err := env.moderation.SubmitReport(ctx, "reporter", "x", "planet", "spam", "")
	assert.True(t, apperr.Is(err, apperr.CodeInvalidArgument))
	_, err = env.moderation.SubmitReport(ctx, "reporter", "x", domain.EntityUser, "  ", "")
	assert.True(t, apperr.Is(err, apperr.CodeInvalidArgument))
	_, err = env.moderation.SubmitReport(ctx, "reporter", "reporter", domain.EntityUser, "spam", "")
	assert.True(t, apperr.Is(err, apperr.CodeInvalidArgument))
}

func TestUnbanUser(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t)
	env.seedUser(t, "target", func(u *domain.User) {
		u.IsBanned = true
		u.BanReason = "spam"
		u.WarningCount = 2
	})
	ctx := context.Background()

	err := env.moderation.UnbanUser(ctx, "target", "target")
	assert.True(t, apperr.Is(err, apperr.CodePermissionDenied))

	require.NoError(t, env.moderation.UnbanUser(ctx, admin, "target"))
	u := env.user(t, "target")
	assert.False(t, u.IsBanned)
	assert.Empty(t, u.BanReason)
	assert.Equal(t, 0, u.WarningCount)

	err = env.moderation.UnbanUser(ctx, admin, "ghost")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}
