package repository

import (
	"context"
	"time"

	"stream_ledger/internal/domain"
	"stream_ledger/internal/ledger"
)

type GiftRepository struct {
	store *ledger.Store
}

func NewGiftRepository(store *ledger.Store) *GiftRepository {
	return &GiftRepository{store: store}
}

func (r *GiftRepository) GetWithTx(ctx context.Context, tx ledger.Tx, id string) (*domain.Gift, error) {
	var g domain.Gift
	ok, err := getWithTx(ctx, tx, ledger.Doc(CollGifts, id), &g)
	if err != nil || !ok {
		return nil, err
	}
	g.ID = id
	return &g, nil
}

// Create adds a catalog entry.
func (r *GiftRepository) Create(ctx context.Context, g *domain.Gift) error {
	if g.ID == "" {
		g.ID = newID()
	}
	return r.store.RunTransaction(ctx, func(ctx context.Context, tx ledger.Tx) error {
		return tx.Create(ledger.Doc(CollGifts, g.ID), g)
	})
}

// SentGiftRepository stores SentGift records and their credit markers.
type SentGiftRepository struct {
	store *ledger.Store
}

func NewSentGiftRepository(store *ledger.Store) *SentGiftRepository {
	return &SentGiftRepository{store: store}
}

func (r *SentGiftRepository) GetWithTx(ctx context.Context, tx ledger.Tx, id string) (*domain.SentGift, error) {
	var g domain.SentGift
	ok, err := getWithTx(ctx, tx, ledger.Doc(CollSentGifts, id), &g)
	if err != nil || !ok {
		return nil, err
	}
	g.ID = id
	return &g, nil
}

func (r *SentGiftRepository) CreateWithTx(tx ledger.Tx, g *domain.SentGift) error {
	if g.ID == "" {
		g.ID = newID()
	}
	return tx.Create(ledger.Doc(CollSentGifts, g.ID), g)
}

func (r *SentGiftRepository) SaveWithTx(tx ledger.Tx, g *domain.SentGift) error {
	return tx.Set(ledger.Doc(CollSentGifts, g.ID), g)
}

// CreditedWithTx reports whether the credit marker for sentGiftID exists.
func (r *SentGiftRepository) CreditedWithTx(ctx context.Context, tx ledger.Tx, sentGiftID string) (bool, error) {
	return getWithTx(ctx, tx, ledger.Doc(CollGiftCredits, sentGiftID), nil)
}

func (r *SentGiftRepository) MarkCreditedWithTx(tx ledger.Tx, sentGiftID string, c *domain.GiftCredit) error {
	return tx.Create(ledger.Doc(CollGiftCredits, sentGiftID), c)
}

// ListUncredited returns SentGifts older than minAge still awaiting credit.
func (r *SentGiftRepository) ListUncredited(ctx context.Context, minAge time.Duration) ([]*domain.SentGift, error) {
	docs, err := r.store.List(ctx, CollSentGifts,
		ledger.Eq("credited", false),
		ledger.Before("timestamp", time.Now().Add(-minAge)),
	)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, func(g *domain.SentGift, id string) { g.ID = id })
}
