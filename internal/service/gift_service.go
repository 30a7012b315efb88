package service

import (
	"context"
	"time"

	"stream_ledger/internal/apperr"
	"stream_ledger/internal/domain"
	"stream_ledger/internal/ledger"
	"stream_ledger/internal/logger"
	"stream_ledger/internal/notify"
	"stream_ledger/internal/repository"
)

// GiftService debits senders and, as a separate step, credits receivers.
type GiftService struct {
	store        *ledger.Store
	users        *repository.UserRepository
	settings     *repository.SettingsRepository
	gifts        *repository.GiftRepository
	sentGifts    *repository.SentGiftRepository
	transactions *repository.TransactionRepository
	revenue      *repository.RevenueRepository
	notifier     notify.Notifier
	now          func() time.Time
}

func NewGiftService(store *ledger.Store, notifier notify.Notifier) *GiftService {
	return &GiftService{
		store:        store,
		users:        repository.NewUserRepository(store),
		settings:     repository.NewSettingsRepository(),
		gifts:        repository.NewGiftRepository(store),
		sentGifts:    repository.NewSentGiftRepository(store),
		transactions: repository.NewTransactionRepository(),
		revenue:      repository.NewRevenueRepository(store),
		notifier:     notifier,
		now:          utcNow,
	}
}

// Send debits the gift's cost from the sender and records a SentGift. The
// receiver is credited later by CreditSentGift.
func (s *GiftService) Send(ctx context.Context, senderID, receiverID, giftID string) (*domain.SentGift, error) {
	if receiverID == "" || giftID == "" {
		return nil, apperr.InvalidArgument("receiverId and giftId are required")
	}
	if senderID == receiverID {
		return nil, apperr.InvalidArgument("cannot send a gift to yourself")
	}

	var sent *domain.SentGift
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx ledger.Tx) error {
		sender, err := s.users.GetWithTx(ctx, tx, senderID)
		if err != nil {
			return err
		}
		if sender == nil {
			return apperr.NotFound("sender not found")
		}
		receiver, err := s.users.GetWithTx(ctx, tx, receiverID)
		if err != nil {
			return err
		}
		if receiver == nil {
			return apperr.NotFound("receiver not found")
		}
		gift, err := s.gifts.GetWithTx(ctx, tx, giftID)
		if err != nil {
			return err
		}
		if gift == nil {
			return apperr.NotFound("gift not found")
		}
		if gift.Cost <= 0 {
			return apperr.FailedPrecondition("gift has no valid cost")
		}
		if sender.Coins < gift.Cost {
			return apperr.FailedPrecondition("insufficient coins")
		}

		now := s.now()
		sender.Coins -= gift.Cost
		if err := s.users.SaveWithTx(tx, sender); err != nil {
			return err
		}

		sent = &domain.SentGift{
			SenderID:   senderID,
			ReceiverID: receiverID,
			GiftID:     gift.ID,
			GiftName:   gift.Name,
			GiftCost:   gift.Cost,
			Timestamp:  now,
		}
		if err := s.sentGifts.CreateWithTx(tx, sent); err != nil {
			return err
		}
		return s.transactions.CreateWithTx(tx, &domain.Transaction{
			UserID:    senderID,
			Type:      domain.TxGiftSent,
			Amount:    -gift.Cost,
			Currency:  domain.CurrencyCoins,
			Timestamp: now,
			Details: map[string]any{
				"giftId":     gift.ID,
				"giftName":   gift.Name,
				"receiverId": receiverID,
				"sentGiftId": sent.ID,
			},
		})
	})
	if err != nil {
		return nil, fail("send gift", err)
	}
	return sent, nil
}

// CreditSentGift pays the receiver's share of a SentGift. Calling it again
// for the same id changes nothing.
func (s *GiftService) CreditSentGift(ctx context.Context, sentGiftID string) error {
	var credited *domain.SentGift
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx ledger.Tx) error {
		credited = nil

		sg, err := s.sentGifts.GetWithTx(ctx, tx, sentGiftID)
		if err != nil {
			return err
		}
		if sg == nil {
			logger.Warn("credit for unknown sent gift", "sent_gift_id", sentGiftID)
			return nil
		}
		done, err := s.sentGifts.CreditedWithTx(ctx, tx, sentGiftID)
		if err != nil {
			return err
		}
		if done || sg.Credited {
			return nil
		}

		settings, err := s.settings.GetWithTx(ctx, tx)
		if err != nil {
			return err
		}
		if settings == nil {
			return errSettingsMissing
		}
		receiver, err := s.users.GetWithTx(ctx, tx, sg.ReceiverID)
		if err != nil {
			return err
		}
		if receiver == nil {
			return apperr.NotFound("receiver not found")
		}

		now := s.now()
		rate := settings.PayoutRate(receiver.IsPremiumAccount)
		value := domain.CoinsToMoney(sg.GiftCost)
		amount := value.MulRate(rate)

		receiver.Balance += amount
		if err := s.users.SaveWithTx(tx, receiver); err != nil {
			return err
		}
		if err := s.sentGifts.MarkCreditedWithTx(tx, sentGiftID, &domain.GiftCredit{
			ReceiverID: receiver.ID,
			Amount:     amount,
			Rate:       rate,
			CreatedAt:  now,
		}); err != nil {
			return err
		}

		sg.Credited = true
		sg.CreditedAmount = amount
		sg.CreditedAt = &now
		if err := s.sentGifts.SaveWithTx(tx, sg); err != nil {
			return err
		}

		if err := s.transactions.CreateWithTx(tx, &domain.Transaction{
			UserID:    receiver.ID,
			Type:      domain.TxGiftReceived,
			Amount:    int64(amount),
			Currency:  domain.CurrencyBalance,
			Timestamp: now,
			Details: map[string]any{
				"sentGiftId": sentGiftID,
				"senderId":   sg.SenderID,
				"giftName":   sg.GiftName,
				"rate":       rate,
				"isPremium":  receiver.IsPremiumAccount,
			},
		}); err != nil {
			return err
		}

		if share := value - amount; share > 0 {
			if err := s.revenue.CreateWithTx(tx, &domain.PlatformRevenue{
				Source:      domain.RevenueGiftShare,
				Amount:      share,
				ReferenceID: sentGiftID,
				Timestamp:   now,
			}); err != nil {
				return err
			}
		}
		credited = sg
		return nil
	})
	if err != nil {
		return fail("credit sent gift", err)
	}

	if credited != nil {
		send(ctx, s.notifier, notify.Notification{
			UserID: credited.ReceiverID,
			Kind:   notify.KindGift,
			Title:  "You received a gift",
			Body:   credited.GiftName,
			Data:   map[string]any{"sentGiftId": credited.ID, "amount": credited.CreditedAmount.String()},
		})
	}
	return nil
}

// SweepUncredited re-runs the credit for SentGifts whose create event was
// lost. Returns how many were retried.
func (s *GiftService) SweepUncredited(ctx context.Context, minAge time.Duration) (int, error) {
	pending, err := s.sentGifts.ListUncredited(ctx, minAge)
	if err != nil {
		return 0, err
	}
	for _, sg := range pending {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := s.CreditSentGift(ctx, sg.ID); err != nil {
			logger.Warn("sweep: gift credit failed", "sent_gift_id", sg.ID, "error", err)
		}
	}
	return len(pending), nil
}
