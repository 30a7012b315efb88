package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"stream_ledger/internal/apperr"
	"stream_ledger/internal/domain"
	"stream_ledger/internal/ledger"
	"stream_ledger/internal/logger"
	"stream_ledger/internal/repository"
)

// MaxEphemeralSeconds bounds how long an ephemeral message may live.
const MaxEphemeralSeconds = 7 * 24 * 60 * 60

// ReaperService removes ephemeral messages once their time is up.
type ReaperService struct {
	store     *ledger.Store
	users     *repository.UserRepository
	messages  *repository.MessageRepository
	batchSize int
	now       func() time.Time
}

func NewReaperService(store *ledger.Store, batchSize int) *ReaperService {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &ReaperService{
		store:     store,
		users:     repository.NewUserRepository(store),
		messages:  repository.NewMessageRepository(store),
		batchSize: batchSize,
		now:       utcNow,
	}
}

// PostMessage stores a room message. A positive ephemeralSeconds schedules
// its deletion.
func (s *ReaperService) PostMessage(ctx context.Context, senderID, roomID, text string, ephemeralSeconds int) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	switch {
	case roomID == "":
		return nil, apperr.InvalidArgument("roomId is required")
	case text == "":
		return nil, apperr.InvalidArgument("text is required")
	case ephemeralSeconds < 0 || ephemeralSeconds > MaxEphemeralSeconds:
		return nil, apperr.InvalidArgument("ephemeralSeconds out of range")
	}

	var msg *domain.Message
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx ledger.Tx) error {
		sender, err := s.users.GetWithTx(ctx, tx, senderID)
		if err != nil {
			return err
		}
		if sender == nil {
			return errUserNotFound
		}
		now := s.now()
		msg = &domain.Message{
			RoomID:    roomID,
			SenderID:  senderID,
			Text:      text,
			Status:    domain.MessageActive,
			CreatedAt: now,
		}
		if ephemeralSeconds > 0 {
			deleteAt := now.Add(time.Duration(ephemeralSeconds) * time.Second)
			msg.IsEphemeral = true
			msg.DeleteAt = &deleteAt
		}
		return s.messages.CreateWithTx(tx, msg)
	})
	if err != nil {
		return nil, fail("post message", err)
	}
	return msg, nil
}

// HandleMessageCreated marks a new ephemeral message for deletion, or
// deletes it at once if its time has already passed.
func (s *ReaperService) HandleMessageCreated(ctx context.Context, messageID string) error {
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx ledger.Tx) error {
		msg, err := s.messages.GetWithTx(ctx, tx, messageID)
		if err != nil {
			return err
		}
		if msg == nil || !msg.IsEphemeral || msg.DeleteAt == nil {
			return nil
		}
		if msg.Expired(s.now()) {
			return s.messages.DeleteWithTx(tx, messageID)
		}
		if msg.Status == domain.MessagePendingDeletion {
			return nil
		}
		msg.Status = domain.MessagePendingDeletion
		return s.messages.SaveWithTx(tx, msg)
	})
	return fail("mark ephemeral message", err)
}

// Sweep deletes every ephemeral message due at now, in batches. A failed
// batch is logged and left for the next sweep.
func (s *ReaperService) Sweep(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.messages.ListExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	var (
		deleted int
		errs    []error
	)
	for start := 0; start < len(expired); start += s.batchSize {
		end := min(start+s.batchSize, len(expired))
		batch := expired[start:end]

		var n int
		err := s.store.RunTransaction(ctx, func(ctx context.Context, tx ledger.Tx) error {
			n = 0
			for _, m := range batch {
				current, err := s.messages.GetWithTx(ctx, tx, m.ID)
				if err != nil {
					return err
				}
				if current == nil || !current.Expired(now) {
					continue
				}
				if err := s.messages.DeleteWithTx(tx, m.ID); err != nil {
					return err
				}
				n++
			}
			return nil
		})
		if err != nil {
			logger.Error("reaper batch failed", "batch_start", start, "size", len(batch), "error", err)
			errs = append(errs, err)
			continue
		}
		deleted += n
	}
	if deleted > 0 {
		logger.Info("reaper sweep done", "deleted", deleted, "candidates", len(expired))
	}
	return deleted, errors.Join(errs...)
}
