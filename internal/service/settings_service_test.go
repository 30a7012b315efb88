package service

import (
	"context"
	"testing"

	"stream_ledger/internal/apperr"
	"stream_ledger/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeSettings(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t)
	env.seedUser(t, "u1", nil)
	ctx := context.Background()
	in := SettingsInput{PremiumPayoutPercentage: 0.8, StandardPayoutPercentage: 0.5, MaxPremiumSlots: 10}

	err := env.settings.Initialize(ctx, "u1", in)
	assert.True(t, apperr.Is(err, apperr.CodePermissionDenied))

	err = env.settings.Initialize(ctx, admin, SettingsInput{PremiumPayoutPercentage: 1.5})
	assert.True(t, apperr.Is(err, apperr.CodeInvalidArgument))

	require.NoError(t, env.settings.Initialize(ctx, admin, in))
	s := env.readSettings(t)
	assert.Equal(t, 0.8, s.PremiumPayoutPercentage)
	assert.Equal(t, 10, s.MaxPremiumSlots)
	assert.Equal(t, domain.DefaultPlatformFee, s.PlatformFee())

	err = env.settings.Initialize(ctx, admin, in)
	assert.True(t, apperr.Is(err, apperr.CodeAlreadyExists), "got %v", err)
	err = env.settings.Bootstrap(ctx, in)
	assert.True(t, apperr.Is(err, apperr.CodeAlreadyExists), "got %v", err)
}

func TestInitializeSettings_ZeroFeeIsKept(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	zero := 0.0

	require.NoError(t, env.settings.Bootstrap(ctx, SettingsInput{
		PremiumPayoutPercentage:  0.8,
		StandardPayoutPercentage: 0.5,
		MaxPremiumSlots:          1,
		PlatformFeePercentage:    &zero,
	}))
	s := env.readSettings(t)
	require.NotNil(t, s.PlatformFeePercentage)
	assert.Equal(t, 0.0, s.PlatformFee())

	bad := 1.2
	env2 := newTestEnv(t)
	err := env2.settings.Bootstrap(ctx, SettingsInput{PlatformFeePercentage: &bad})
	assert.True(t, apperr.Is(err, apperr.CodeInvalidArgument), "got %v", err)
}
