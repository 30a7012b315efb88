package repository

import (
	"context"

	"stream_ledger/internal/domain"
	"stream_ledger/internal/ledger"
)

type PayoutRepository struct{}

func NewPayoutRepository() *PayoutRepository {
	return &PayoutRepository{}
}

func (r *PayoutRepository) GetWithTx(ctx context.Context, tx ledger.Tx, id string) (*domain.PayoutRequest, error) {
	var p domain.PayoutRequest
	ok, err := getWithTx(ctx, tx, ledger.Doc(CollPayoutRequests, id), &p)
	if err != nil || !ok {
		return nil, err
	}
	p.ID = id
	return &p, nil
}

func (r *PayoutRepository) CreateWithTx(tx ledger.Tx, p *domain.PayoutRequest) error {
	if p.ID == "" {
		p.ID = newID()
	}
	return tx.Create(ledger.Doc(CollPayoutRequests, p.ID), p)
}

func (r *PayoutRepository) SaveWithTx(tx ledger.Tx, p *domain.PayoutRequest) error {
	return tx.Set(ledger.Doc(CollPayoutRequests, p.ID), p)
}
