package repository

import (
	"time"

	"stream_ledger/internal/domain"
	"stream_ledger/internal/ledger"
)

// AuditRepository stores audit log entries
type AuditRepository struct{}

// NewAuditRepository creates a new audit repository
func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

// CreateWithTx inserts a new audit log entry within a transaction
func (r *AuditRepository) CreateWithTx(tx ledger.Tx, log *domain.AuditLog) error {
	if log.ID == "" {
		log.ID = newID()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	if log.Details == nil {
		log.Details = map[string]any{}
	}
	return tx.Create(ledger.Doc(CollAuditLogs, log.ID), log)
}
