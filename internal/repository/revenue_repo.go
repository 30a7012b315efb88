package repository

import (
	"context"
	"time"

	"stream_ledger/internal/domain"
	"stream_ledger/internal/ledger"
)

type RevenueRepository struct {
	store *ledger.Store
}

func NewRevenueRepository(store *ledger.Store) *RevenueRepository {
	return &RevenueRepository{store: store}
}

func (r *RevenueRepository) CreateWithTx(tx ledger.Tx, e *domain.PlatformRevenue) error {
	if e.ID == "" {
		e.ID = newID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return tx.Create(ledger.Doc(CollPlatformRevenue, e.ID), e)
}

func (r *RevenueRepository) GetWithTx(ctx context.Context, tx ledger.Tx, id string) (*domain.PlatformRevenue, error) {
	var e domain.PlatformRevenue
	ok, err := getWithTx(ctx, tx, ledger.Doc(CollPlatformRevenue, id), &e)
	if err != nil || !ok {
		return nil, err
	}
	e.ID = id
	return &e, nil
}

func (r *RevenueRepository) SaveWithTx(tx ledger.Tx, e *domain.PlatformRevenue) error {
	return tx.Set(ledger.Doc(CollPlatformRevenue, e.ID), e)
}

// ListUnaggregated returns revenue entries not yet folded into a summary.
func (r *RevenueRepository) ListUnaggregated(ctx context.Context) ([]*domain.PlatformRevenue, error) {
	docs, err := r.store.List(ctx, CollPlatformRevenue, ledger.Eq("aggregated", false))
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, func(e *domain.PlatformRevenue, id string) { e.ID = id })
}

// SummaryWithTx returns the summary for month, or an empty one.
func (r *RevenueRepository) SummaryWithTx(ctx context.Context, tx ledger.Tx, month string) (*domain.RevenueSummary, error) {
	s := &domain.RevenueSummary{Month: month}
	if _, err := getWithTx(ctx, tx, ledger.Doc(CollRevenueSummaries, month), s); err != nil {
		return nil, err
	}
	if s.BySource == nil {
		s.BySource = map[domain.RevenueSource]domain.Money{}
	}
	return s, nil
}

func (r *RevenueRepository) SaveSummaryWithTx(tx ledger.Tx, s *domain.RevenueSummary) error {
	return tx.Set(ledger.Doc(CollRevenueSummaries, s.Month), s)
}

// GetSummary reads a monthly summary outside a transaction.
func (r *RevenueRepository) GetSummary(ctx context.Context, month string) (*domain.RevenueSummary, error) {
	var s domain.RevenueSummary
	if err := r.store.Get(ctx, ledger.Doc(CollRevenueSummaries, month), &s); err != nil {
		return nil, err
	}
	return &s, nil
}
