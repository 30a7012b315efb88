package repository

import (
	"time"

	"stream_ledger/internal/domain"
	"stream_ledger/internal/ledger"
)

type TransactionRepository struct{}

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{}
}

// CreateWithTx appends an audit transaction inside tx
func (r *TransactionRepository) CreateWithTx(tx ledger.Tx, t *domain.Transaction) error {
	if t.ID == "" {
		t.ID = newID()
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now().UTC()
	}
	return tx.Create(ledger.Doc(CollTransactions, t.ID), t)
}
