package repository

import (
	"context"
	"errors"
	"time"

	"stream_ledger/internal/domain"
	"stream_ledger/internal/ledger"
)

type UserRepository struct {
	store *ledger.Store
}

func NewUserRepository(store *ledger.Store) *UserRepository {
	return &UserRepository{store: store}
}

func userRef(id string) ledger.Ref {
	return ledger.Doc(CollUsers, id)
}

// GetByID reads a user outside a transaction. Returns nil, nil when missing.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := r.store.Get(ctx, userRef(id), &u); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	u.ID = id
	return &u, nil
}

// GetWithTx reads a user inside tx. Returns nil, nil when missing.
func (r *UserRepository) GetWithTx(ctx context.Context, tx ledger.Tx, id string) (*domain.User, error) {
	var u domain.User
	ok, err := getWithTx(ctx, tx, userRef(id), &u)
	if err != nil || !ok {
		return nil, err
	}
	u.ID = id
	return &u, nil
}

func (r *UserRepository) SaveWithTx(tx ledger.Tx, u *domain.User) error {
	return tx.Set(userRef(u.ID), u)
}

// Create inserts a new user, assigning an id if u has none.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = newID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	return r.store.RunTransaction(ctx, func(ctx context.Context, tx ledger.Tx) error {
		return tx.Create(userRef(u.ID), u)
	})
}
