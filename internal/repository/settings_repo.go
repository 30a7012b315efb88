package repository

import (
	"context"

	"stream_ledger/internal/domain"
	"stream_ledger/internal/ledger"
)

type SettingsRepository struct{}

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{}
}

var settingsRef = ledger.Doc(CollSettings, domain.SettingsID)

// GetWithTx returns the global settings, or nil, nil before initialization.
func (r *SettingsRepository) GetWithTx(ctx context.Context, tx ledger.Tx) (*domain.Settings, error) {
	var s domain.Settings
	ok, err := getWithTx(ctx, tx, settingsRef, &s)
	if err != nil || !ok {
		return nil, err
	}
	if s.PremiumSlots == nil {
		s.PremiumSlots = map[string]string{}
	}
	return &s, nil
}

func (r *SettingsRepository) SaveWithTx(tx ledger.Tx, s *domain.Settings) error {
	return tx.Set(settingsRef, s)
}

func (r *SettingsRepository) CreateWithTx(tx ledger.Tx, s *domain.Settings) error {
	return tx.Create(settingsRef, s)
}
