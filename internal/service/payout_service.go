package service

import (
	"context"
	"time"

	"stream_ledger/internal/apperr"
	"stream_ledger/internal/domain"
	"stream_ledger/internal/ledger"
	"stream_ledger/internal/notify"
	"stream_ledger/internal/repository"
)

// PayoutService escrows balance for payout requests and settles them.
type PayoutService struct {
	store        *ledger.Store
	users        *repository.UserRepository
	settings     *repository.SettingsRepository
	payouts      *repository.PayoutRepository
	transactions *repository.TransactionRepository
	revenue      *repository.RevenueRepository
	audit        *AuditService
	notifier     notify.Notifier
	now          func() time.Time
}

func NewPayoutService(store *ledger.Store, audit *AuditService, notifier notify.Notifier) *PayoutService {
	return &PayoutService{
		store:        store,
		users:        repository.NewUserRepository(store),
		settings:     repository.NewSettingsRepository(),
		payouts:      repository.NewPayoutRepository(),
		transactions: repository.NewTransactionRepository(),
		revenue:      repository.NewRevenueRepository(store),
		audit:        audit,
		notifier:     notifier,
		now:          utcNow,
	}
}

// Request reserves amount from the user's balance and files a pending
// payout request.
func (s *PayoutService) Request(ctx context.Context, userID string, amount domain.Money, method domain.PayoutMethod, details map[string]any) (*domain.PayoutRequest, error) {
	if amount <= 0 {
		return nil, apperr.InvalidArgument("amount must be positive")
	}
	if !method.Valid() {
		return nil, apperr.InvalidArgument("payoutMethod must be paypal or bank_transfer")
	}

	var req *domain.PayoutRequest
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx ledger.Tx) error {
		user, err := s.users.GetWithTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return errUserNotFound
		}
		if user.Balance < amount {
			return apperr.FailedPrecondition("insufficient balance")
		}

		now := s.now()
		user.Balance -= amount
		if err := s.users.SaveWithTx(tx, user); err != nil {
			return err
		}

		req = &domain.PayoutRequest{
			UserID:        userID,
			Amount:        amount,
			PayoutMethod:  method,
			PayoutDetails: details,
			Status:        domain.PayoutPending,
			CreatedAt:     now,
		}
		if err := s.payouts.CreateWithTx(tx, req); err != nil {
			return err
		}
		return s.transactions.CreateWithTx(tx, &domain.Transaction{
			UserID:    userID,
			Type:      domain.TxPayoutRequest,
			Amount:    -int64(amount),
			Currency:  domain.CurrencyBalance,
			Timestamp: now,
			Details:   map[string]any{"payoutRequestId": req.ID, "payoutMethod": method},
		})
	})
	if err != nil {
		return nil, fail("request payout", err)
	}
	return req, nil
}

// Process approves or rejects a pending request. The status check and the
// state change commit together, so concurrent admins cannot both settle it.
func (s *PayoutService) Process(ctx context.Context, adminID, requestID string, action domain.PayoutAction) error {
	if requestID == "" {
		return apperr.InvalidArgument("payoutRequestId is required")
	}
	if action != domain.PayoutApprove && action != domain.PayoutReject {
		return apperr.InvalidArgument("action must be approve or reject")
	}

	var settled *domain.PayoutRequest
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx ledger.Tx) error {
		if err := requireAdminWithTx(ctx, tx, s.users, adminID); err != nil {
			return err
		}
		req, err := s.payouts.GetWithTx(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return apperr.NotFound("payout request not found")
		}
		if req.Status != domain.PayoutPending {
			return apperr.FailedPrecondition("payout request already processed")
		}

		now := s.now()
		req.ProcessedAt = &now
		req.ProcessedBy = adminID

		var auditAction string
		switch action {
		case domain.PayoutApprove:
			if err := s.approveWithTx(ctx, tx, req, now); err != nil {
				return err
			}
			auditAction = domain.AuditActionPayoutApprove
		case domain.PayoutReject:
			if err := s.rejectWithTx(ctx, tx, req, now); err != nil {
				return err
			}
			auditAction = domain.AuditActionPayoutReject
		}

		if err := s.payouts.SaveWithTx(tx, req); err != nil {
			return err
		}
		settled = req
		return s.audit.LogWithTx(tx, adminID, auditAction, domain.AuditCategoryPayout, map[string]any{
			"payout_request_id": req.ID,
			"user_id":           req.UserID,
			"amount":            req.Amount.String(),
		})
	})
	if err != nil {
		return fail("process payout", err)
	}

	send(ctx, s.notifier, notify.Notification{
		UserID: settled.UserID,
		Kind:   notify.KindPayout,
		Title:  "Payout " + string(settled.Status),
		Body:   settled.Amount.String(),
		Data:   map[string]any{"payoutRequestId": settled.ID, "status": settled.Status},
	})
	return nil
}

func (s *PayoutService) approveWithTx(ctx context.Context, tx ledger.Tx, req *domain.PayoutRequest, now time.Time) error {
	settings, err := s.settings.GetWithTx(ctx, tx)
	if err != nil {
		return err
	}
	rate := domain.DefaultPlatformFee
	if settings != nil {
		rate = settings.PlatformFee()
	}
	fee := req.Amount.MulRate(rate)

	req.Status = domain.PayoutCompleted
	if fee > 0 {
		if err := s.revenue.CreateWithTx(tx, &domain.PlatformRevenue{
			Source:      domain.RevenuePayoutFee,
			Amount:      fee,
			ReferenceID: req.ID,
			Timestamp:   now,
		}); err != nil {
			return err
		}
	}
	return s.transactions.CreateWithTx(tx, &domain.Transaction{
		UserID:    req.UserID,
		Type:      domain.TxPayoutCompleted,
		Amount:    int64(req.Amount),
		Currency:  domain.CurrencyBalance,
		Timestamp: now,
		Details: map[string]any{
			"payoutRequestId": req.ID,
			"fee":             int64(fee),
			"net":             int64(req.Amount - fee),
		},
	})
}

func (s *PayoutService) rejectWithTx(ctx context.Context, tx ledger.Tx, req *domain.PayoutRequest, now time.Time) error {
	user, err := s.users.GetWithTx(ctx, tx, req.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return errUserNotFound
	}
	user.Balance += req.Amount
	if err := s.users.SaveWithTx(tx, user); err != nil {
		return err
	}

	req.Status = domain.PayoutRejected
	return s.transactions.CreateWithTx(tx, &domain.Transaction{
		UserID:    req.UserID,
		Type:      domain.TxPayoutRefund,
		Amount:    int64(req.Amount),
		Currency:  domain.CurrencyBalance,
		Timestamp: now,
		Details:   map[string]any{"payoutRequestId": req.ID},
	})
}
