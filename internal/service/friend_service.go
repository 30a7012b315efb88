package service

import (
	"context"
	"errors"
	"time"

	"stream_ledger/internal/apperr"
	"stream_ledger/internal/domain"
	"stream_ledger/internal/ledger"
	"stream_ledger/internal/repository"
)

// FriendRequestOutcome tells the caller what SendRequest did.
type FriendRequestOutcome string

const (
	FriendRequestSent         FriendRequestOutcome = "sent"
	FriendRequestAutoAccepted FriendRequestOutcome = "accepted"
)

// FriendService maintains the symmetric friend graph.
type FriendService struct {
	store    *ledger.Store
	users    *repository.UserRepository
	requests *repository.FriendRequestRepository
	now      func() time.Time
}

func NewFriendService(store *ledger.Store) *FriendService {
	return &FriendService{
		store:    store,
		users:    repository.NewUserRepository(store),
		requests: repository.NewFriendRequestRepository(),
		now:      utcNow,
	}
}

var errFriendRequestMismatch = errors.New("friend request document belongs to another pair")

// SendRequest files a request from sender to receiver. When the receiver has
// already asked the sender, the two become friends instead.
func (s *FriendService) SendRequest(ctx context.Context, senderID, receiverID string) (FriendRequestOutcome, error) {
	if receiverID == "" {
		return "", apperr.InvalidArgument("receiverId is required")
	}
	if senderID == receiverID {
		return "", apperr.InvalidArgument("cannot send a friend request to yourself")
	}

	var outcome FriendRequestOutcome
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx ledger.Tx) error {
		sender, receiver, err := s.pairWithTx(ctx, tx, senderID, receiverID)
		if err != nil {
			return err
		}
		if sender.HasFriend(receiverID) {
			return apperr.FailedPrecondition("already friends")
		}

		// both request documents join the read set, so two users asking each
		// other at once conflict and the retry takes the branch below
		reverse, err := s.requests.GetWithTx(ctx, tx, domain.FriendRequestID(receiverID, senderID))
		if err != nil {
			return err
		}
		forward, err := s.requests.GetWithTx(ctx, tx, domain.FriendRequestID(senderID, receiverID))
		if err != nil {
			return err
		}
		if (reverse != nil && !reverse.Between(receiverID, senderID)) || (forward != nil && !forward.Between(senderID, receiverID)) {
			return errFriendRequestMismatch
		}
		now := s.now()

		if reverse != nil && reverse.Status == domain.FriendRequestPending {
			befriend(sender, receiver)
			reverse.Status = domain.FriendRequestAccepted
			reverse.RespondedAt = &now
			if err := s.requests.SaveWithTx(tx, reverse); err != nil {
				return err
			}
			outcome = FriendRequestAutoAccepted
			return s.saveUsers(tx, sender, receiver)
		}

		if forward != nil && forward.Status == domain.FriendRequestPending {
			return apperr.AlreadyExists("friend request already pending")
		}

		if err := s.requests.SaveWithTx(tx, &domain.FriendRequest{
			SenderID:   senderID,
			ReceiverID: receiverID,
			Status:     domain.FriendRequestPending,
			CreatedAt:  now,
		}); err != nil {
			return err
		}
		sender.SentFriendRequests = domain.AddID(sender.SentFriendRequests, receiverID)
		receiver.ReceivedFriendRequests = domain.AddID(receiver.ReceivedFriendRequests, senderID)
		outcome = FriendRequestSent
		return s.saveUsers(tx, sender, receiver)
	})
	if err != nil {
		return "", fail("send friend request", err)
	}
	return outcome, nil
}

// Respond accepts or declines a pending request addressed to callerID.
func (s *FriendService) Respond(ctx context.Context, callerID, requestID string, action domain.FriendAction) error {
	if requestID == "" {
		return apperr.InvalidArgument("requestId is required")
	}
	if action != domain.FriendAccept && action != domain.FriendDecline {
		return apperr.InvalidArgument("action must be accept or decline")
	}

	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx ledger.Tx) error {
		req, err := s.requests.GetWithTx(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return apperr.NotFound("friend request not found")
		}
		if req.ReceiverID != callerID {
			return apperr.PermissionDenied("only the receiver can respond to a friend request")
		}
		if req.Status != domain.FriendRequestPending {
			return apperr.FailedPrecondition("friend request already answered")
		}

		sender, receiver, err := s.pairWithTx(ctx, tx, req.SenderID, req.ReceiverID)
		if err != nil {
			return err
		}

		now := s.now()
		req.RespondedAt = &now
		if action == domain.FriendAccept {
			befriend(sender, receiver)
			req.Status = domain.FriendRequestAccepted
		} else {
			clearPending(sender, receiver)
			req.Status = domain.FriendRequestDeclined
		}

		if err := s.requests.SaveWithTx(tx, req); err != nil {
			return err
		}
		return s.saveUsers(tx, sender, receiver)
	})
	return fail("respond to friend request", err)
}

// RemoveFriend drops the friendship from both sides.
func (s *FriendService) RemoveFriend(ctx context.Context, userID, friendID string) error {
	if friendID == "" {
		return apperr.InvalidArgument("friendId is required")
	}
	if userID == friendID {
		return apperr.InvalidArgument("cannot remove yourself")
	}

	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx ledger.Tx) error {
		user, err := s.users.GetWithTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return errUserNotFound
		}
		friend, err := s.users.GetWithTx(ctx, tx, friendID)
		if err != nil {
			return err
		}

		user.Friends = domain.RemoveID(user.Friends, friendID)
		if err := s.users.SaveWithTx(tx, user); err != nil {
			return err
		}
		if friend == nil {
			return nil
		}
		friend.Friends = domain.RemoveID(friend.Friends, userID)
		return s.users.SaveWithTx(tx, friend)
	})
	return fail("remove friend", err)
}

func (s *FriendService) pairWithTx(ctx context.Context, tx ledger.Tx, aID, bID string) (*domain.User, *domain.User, error) {
	a, err := s.users.GetWithTx(ctx, tx, aID)
	if err != nil {
		return nil, nil, err
	}
	if a == nil {
		return nil, nil, errUserNotFound
	}
	b, err := s.users.GetWithTx(ctx, tx, bID)
	if err != nil {
		return nil, nil, err
	}
	if b == nil {
		return nil, nil, errUserNotFound
	}
	return a, b, nil
}

func (s *FriendService) saveUsers(tx ledger.Tx, users ...*domain.User) error {
	for _, u := range users {
		if err := s.users.SaveWithTx(tx, u); err != nil {
			return err
		}
	}
	return nil
}

func befriend(a, b *domain.User) {
	a.Friends = domain.AddID(a.Friends, b.ID)
	b.Friends = domain.AddID(b.Friends, a.ID)
	clearPending(a, b)
}

// clearPending removes any pending entries between a and b in both
// directions.
func clearPending(a, b *domain.User) {
	a.SentFriendRequests = domain.RemoveID(a.SentFriendRequests, b.ID)
	a.ReceivedFriendRequests = domain.RemoveID(a.ReceivedFriendRequests, b.ID)
	b.SentFriendRequests = domain.RemoveID(b.SentFriendRequests, a.ID)
	b.ReceivedFriendRequests = domain.RemoveID(b.ReceivedFriendRequests, a.ID)
}
