package service

import (
	"stream_ledger/internal/domain"
	"stream_ledger/internal/ledger"
	"stream_ledger/internal/repository"
)

// AuditService handles audit logging
type AuditService struct {
	repo *repository.AuditRepository
}

// NewAuditService creates a new audit service
func NewAuditService() *AuditService {
	return &AuditService{
		repo: repository.NewAuditRepository(),
	}
}

// LogWithTx records an audit entry in the same transaction as the action
func (s *AuditService) LogWithTx(tx ledger.Tx, userID, action, category string, details map[string]any) error {
	return s.repo.CreateWithTx(tx, &domain.AuditLog{
		UserID:   userID,
		Action:   action,
		Category: category,
		Details:  details,
	})
}
