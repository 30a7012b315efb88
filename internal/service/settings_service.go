package service

import (
	"context"
	"errors"

	"stream_ledger/internal/apperr"
	"stream_ledger/internal/domain"
	"stream_ledger/internal/ledger"
	"stream_ledger/internal/repository"
)

// SettingsInput carries the values for the one-time settings creation.
type SettingsInput struct {
	PremiumPayoutPercentage  float64 `json:"premiumPayoutPercentage"`
	StandardPayoutPercentage float64 `json:"standardPayoutPercentage"`
	MaxPremiumSlots          int     `json:"maxPremiumSlots"`
	PlatformFeePercentage    *float64 `json:"platformFeePercentage,omitempty"`
}

func (in SettingsInput) validate() error {
	rates := []float64{in.PremiumPayoutPercentage, in.StandardPayoutPercentage}
	if in.PlatformFeePercentage != nil {
		rates = append(rates, *in.PlatformFeePercentage)
	}
	for _, rate := range rates {
		if rate < 0 || rate > 1 {
			return apperr.InvalidArgument("rates must be fractions between 0 and 1")
		}
	}
	if in.MaxPremiumSlots < 0 {
		return apperr.InvalidArgument("maxPremiumSlots must not be negative")
	}
	return nil
}

type SettingsService struct {
	store    *ledger.Store
	users    *repository.UserRepository
	settings *repository.SettingsRepository
	audit    *AuditService
}

func NewSettingsService(store *ledger.Store, audit *AuditService) *SettingsService {
	return &SettingsService{
		store:    store,
		users:    repository.NewUserRepository(store),
		settings: repository.NewSettingsRepository(),
		audit:    audit,
	}
}

// Initialize creates the settings singleton on behalf of an admin.
func (s *SettingsService) Initialize(ctx context.Context, adminID string, in SettingsInput) error {
	return s.initialize(ctx, adminID, in)
}

// Bootstrap creates the settings singleton from the command line.
func (s *SettingsService) Bootstrap(ctx context.Context, in SettingsInput) error {
	return s.initialize(ctx, "", in)
}

func (s *SettingsService) initialize(ctx context.Context, adminID string, in SettingsInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	fee := domain.DefaultPlatformFee
	if in.PlatformFeePercentage != nil {
		fee = *in.PlatformFeePercentage
	}

	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx ledger.Tx) error {
		if adminID != "" {
			if err := requireAdminWithTx(ctx, tx, s.users, adminID); err != nil {
				return err
			}
		}
		if err := s.settings.CreateWithTx(tx, &domain.Settings{
			PremiumPayoutPercentage:  in.PremiumPayoutPercentage,
			StandardPayoutPercentage: in.StandardPayoutPercentage,
			MaxPremiumSlots:          in.MaxPremiumSlots,
			PremiumSlots:             map[string]string{},
			PlatformFeePercentage:    &fee,
		}); err != nil {
			return err
		}
		return s.audit.LogWithTx(tx, adminID, domain.AuditActionInitSettings, domain.AuditCategoryAdmin, map[string]any{
			"premium_rate":  in.PremiumPayoutPercentage,
			"standard_rate": in.StandardPayoutPercentage,
			"max_slots":     in.MaxPremiumSlots,
			"platform_fee":  fee,
		})
	})
	if errors.Is(err, ledger.ErrAlreadyExists) {
		return apperr.AlreadyExists("settings already initialized")
	}
	return fail("initialize settings", err)
}
