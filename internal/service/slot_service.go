package service

import (
	"context"

	"stream_ledger/internal/apperr"
	"stream_ledger/internal/domain"
	"stream_ledger/internal/ledger"
	"stream_ledger/internal/repository"
)

// SlotService allocates the capacity-bounded premium slots.
type SlotService struct {
	store    *ledger.Store
	users    *repository.UserRepository
	settings *repository.SettingsRepository
	audit    *AuditService
}

func NewSlotService(store *ledger.Store, audit *AuditService) *SlotService {
	return &SlotService{
		store:    store,
		users:    repository.NewUserRepository(store),
		settings: repository.NewSettingsRepository(),
		audit:    audit,
	}
}

// Assign gives slotID to userID. Re-assigning a user to the slot they hold
// succeeds without change.
func (s *SlotService) Assign(ctx context.Context, adminID, userID, slotID string) error {
	if userID == "" || slotID == "" {
		return apperr.InvalidArgument("userId and slotId are required")
	}

	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx ledger.Tx) error {
		if err := requireAdminWithTx(ctx, tx, s.users, adminID); err != nil {
			return err
		}
		settings, err := s.settings.GetWithTx(ctx, tx)
		if err != nil {
			return err
		}
		if settings == nil {
			return errSettingsMissing
		}
		user, err := s.users.GetWithTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return errUserNotFound
		}

		holder := settings.SlotHolder(slotID)
		if holder != "" && holder != userID {
			return apperr.AlreadyExists("slot is already occupied")
		}
		if current := settings.SlotOf(userID); current != "" && current != slotID {
			return apperr.FailedPrecondition("user already holds another premium slot")
		}
		if user.PremiumSlotID != "" && user.PremiumSlotID != slotID {
			return apperr.FailedPrecondition("user already holds another premium slot")
		}
		if holder == userID && user.IsPremiumAccount && user.PremiumSlotID == slotID {
			return nil
		}
		if !user.IsPremiumAccount && holder == "" && settings.OccupiedSlots() >= settings.MaxPremiumSlots {
			return apperr.FailedPrecondition("no premium slots available")
		}

		settings.PremiumSlots[slotID] = userID
		user.IsPremiumAccount = true
		user.PremiumSlotID = slotID

		if err := s.settings.SaveWithTx(tx, settings); err != nil {
			return err
		}
		if err := s.users.SaveWithTx(tx, user); err != nil {
			return err
		}
		return s.audit.LogWithTx(tx, adminID, domain.AuditActionPremiumAssign, domain.AuditCategoryPremium,
			map[string]any{"user_id": userID, "slot_id": slotID})
	})
	return fail("assign premium slot", err)
}

// Unassign clears the user's premium status and frees any slot they hold.
func (s *SlotService) Unassign(ctx context.Context, adminID, userID string) error {
	if userID == "" {
		return apperr.InvalidArgument("userId is required")
	}

	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx ledger.Tx) error {
		if err := requireAdminWithTx(ctx, tx, s.users, adminID); err != nil {
			return err
		}
		settings, err := s.settings.GetWithTx(ctx, tx)
		if err != nil {
			return err
		}
		if settings == nil {
			return errSettingsMissing
		}
		user, err := s.users.GetWithTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return errUserNotFound
		}

		var freed []string
		for slot, holder := range settings.PremiumSlots {
			if holder == userID {
				delete(settings.PremiumSlots, slot)
				freed = append(freed, slot)
			}
		}
		user.IsPremiumAccount = false
		user.PremiumSlotID = ""

		if err := s.settings.SaveWithTx(tx, settings); err != nil {
			return err
		}
		if err := s.users.SaveWithTx(tx, user); err != nil {
			return err
		}
		return s.audit.LogWithTx(tx, adminID, domain.AuditActionPremiumUnassign, domain.AuditCategoryPremium,
			map[string]any{"user_id": userID, "freed_slots": freed})
	})
	return fail("unassign premium slot", err)
}
