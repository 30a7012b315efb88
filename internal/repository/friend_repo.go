package repository

import (
	"context"

	"stream_ledger/internal/domain"
	"stream_ledger/internal/ledger"
)

type FriendRequestRepository struct{}

func NewFriendRequestRepository() *FriendRequestRepository {
	return &FriendRequestRepository{}
}

func (r *FriendRequestRepository) GetWithTx(ctx context.Context, tx ledger.Tx, id string) (*domain.FriendRequest, error) {
	var fr domain.FriendRequest
	ok, err := getWithTx(ctx, tx, ledger.Doc(CollFriendRequests, id), &fr)
	if err != nil || !ok {
		return nil, err
	}
	fr.ID = id
	return &fr, nil
}

// SaveWithTx writes fr under the id of its sender/receiver pair.
func (r *FriendRequestRepository) SaveWithTx(tx ledger.Tx, fr *domain.FriendRequest) error {
	fr.ID = domain.FriendRequestID(fr.SenderID, fr.ReceiverID)
	return tx.Set(ledger.Doc(CollFriendRequests, fr.ID), fr)
}
