package repository

import (
	"context"
	"time"

	"stream_ledger/internal/domain"
	"stream_ledger/internal/ledger"
)

type MessageRepository struct {
	store *ledger.Store
}

func NewMessageRepository(store *ledger.Store) *MessageRepository {
	return &MessageRepository{store: store}
}

func (r *MessageRepository) GetWithTx(ctx context.Context, tx ledger.Tx, id string) (*domain.Message, error) {
	var m domain.Message
	ok, err := getWithTx(ctx, tx, ledger.Doc(CollMessages, id), &m)
	if err != nil || !ok {
		return nil, err
	}
	m.ID = id
	return &m, nil
}

func (r *MessageRepository) CreateWithTx(tx ledger.Tx, m *domain.Message) error {
	if m.ID == "" {
		m.ID = newID()
	}
	return tx.Create(ledger.Doc(CollMessages, m.ID), m)
}

func (r *MessageRepository) SaveWithTx(tx ledger.Tx, m *domain.Message) error {
	return tx.Set(ledger.Doc(CollMessages, m.ID), m)
}

func (r *MessageRepository) DeleteWithTx(tx ledger.Tx, id string) error {
	return tx.Delete(ledger.Doc(CollMessages, id))
}

// ListExpired returns ephemeral messages due for deletion at now.
func (r *MessageRepository) ListExpired(ctx context.Context, now time.Time) ([]*domain.Message, error) {
	docs, err := r.store.List(ctx, CollMessages,
		ledger.Eq("isEphemeral", true),
		ledger.Before("deleteAt", now),
	)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, func(m *domain.Message, id string) { m.ID = id })
}
