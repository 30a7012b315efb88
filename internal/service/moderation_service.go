package service

import (
	"context"
	"strings"
	"time"

	"stream_ledger/internal/apperr"
	"stream_ledger/internal/domain"
	"stream_ledger/internal/ledger"
	"stream_ledger/internal/logger"
	"stream_ledger/internal/notify"
	"stream_ledger/internal/repository"
)

// BanStatus is the caller-visible ban state of a user.
type BanStatus struct {
	IsBanned     bool       `json:"isBanned"`
	BanExpiresAt *time.Time `json:"banExpiresAt"`
	BanReason    string     `json:"banReason,omitempty"`
}

// ModerationService takes reports and applies the tiered penalty ladder.
type ModerationService struct {
	store    *ledger.Store
	users    *repository.UserRepository
	reports  *repository.ReportRepository
	audit    *AuditService
	notifier notify.Notifier
	now      func() time.Time
}

func NewModerationService(store *ledger.Store, audit *AuditService, notifier notify.Notifier) *ModerationService {
	return &ModerationService{
		store:    store,
		users:    repository.NewUserRepository(store),
		reports:  repository.NewReportRepository(store),
		audit:    audit,
		notifier: notifier,
		now:      utcNow,
	}
}

// SubmitReport files a pending report. ProcessReport runs once it commits.
func (s *ModerationService) SubmitReport(ctx context.Context, reporterID, entityID string, entityType domain.EntityType, reason, description string) (*domain.Report, error) {
	reason = strings.TrimSpace(reason)
	switch {
	case entityID == "":
		return nil, apperr.InvalidArgument("reportedEntityId is required")
	case !entityType.Valid():
		return nil, apperr.InvalidArgument("reportedEntityType must be user, video, comment, message or stream")
	case reason == "":
		return nil, apperr.InvalidArgument("reason is required")
	case entityType == domain.EntityUser && entityID == reporterID:
		return nil, apperr.InvalidArgument("cannot report yourself")
	}

	var report *domain.Report
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx ledger.Tx) error {
		reporter, err := s.users.GetWithTx(ctx, tx, reporterID)
		if err != nil {
			return err
		}
		if reporter == nil {
			return errUserNotFound
		}
		report = &domain.Report{
			ReporterID:         reporterID,
			ReportedEntityID:   entityID,
			ReportedEntityType: entityType,
			Reason:             reason,
			Description:        strings.TrimSpace(description),
			Status:             domain.ReportPending,
			CreatedAt:          s.now(),
		}
		return s.reports.CreateWithTx(tx, report)
	})
	if err != nil {
		return nil, fail("submit report", err)
	}
	return report, nil
}

// ProcessReport resolves a pending report against the responsible user.
// Reports that are no longer pending are left alone.
func (s *ModerationService) ProcessReport(ctx context.Context, reportID string) error {
	var (
		penalized *domain.User
		action    domain.ModerationAction
	)
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx ledger.Tx) error {
		penalized, action = nil, domain.ActionNone

		report, err := s.reports.GetWithTx(ctx, tx, reportID)
		if err != nil {
			return err
		}
		if report == nil || report.Status != domain.ReportPending {
			return nil
		}

		now := s.now()
		report.ResolvedAt = &now

		ownerID, err := s.reports.ResolveOwnerWithTx(ctx, tx, report.ReportedEntityType, report.ReportedEntityID)
		if err != nil {
			return err
		}
		if ownerID == "" {
			report.Status = domain.ReportRejected
			report.RejectionReason = domain.RejectNoUserFound
			return s.reports.SaveWithTx(tx, report)
		}

		user, err := s.users.GetWithTx(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		if user == nil {
			return errUserNotFound
		}

		p := domain.NextPenalty(domain.PenaltyStateOf(user, now), now)
		report.Status = domain.ReportResolved
		report.Action = p.Action
		report.ResolvedUserID = ownerID
		if p.Action == domain.ActionNone {
			return s.reports.SaveWithTx(tx, report)
		}

		user.ApplyPenalty(p, report.Reason)
		if err := s.users.SaveWithTx(tx, user); err != nil {
			return err
		}
		if err := s.reports.CreateViolationWithTx(tx, &domain.Violation{
			UserID:       ownerID,
			ReportID:     report.ID,
			Type:         report.Reason,
			Level:        p.Level,
			Action:       p.Action,
			BanExpiresAt: user.BanExpiresAt,
			CreatedAt:    now,
		}); err != nil {
			return err
		}
		penalized, action = user, p.Action
		return s.reports.SaveWithTx(tx, report)
	})
	if err != nil {
		return fail("process report", err)
	}

	if penalized != nil {
		logger.Info("moderation action applied", "user_id", penalized.ID, "action", action, "report_id", reportID)
		send(ctx, s.notifier, penaltyNotification(penalized, action))
	}
	return nil
}

func penaltyNotification(u *domain.User, action domain.ModerationAction) notify.Notification {
	n := notify.Notification{
		UserID: u.ID,
		Kind:   notify.KindWarning,
		Title:  "Community guidelines warning",
		Body:   u.BanReason,
		Data:   map[string]any{"action": action, "warningCount": u.WarningCount},
	}
	if action.IsBan() {
		n.Kind = notify.KindBan
		n.Title = "Your account has been suspended"
		n.Data["banExpiresAt"] = u.BanExpiresAt
	}
	return n
}

// CheckBanStatus returns the user's ban state, lifting a temporary ban whose
// time has passed. Every ban check goes through here.
func (s *ModerationService) CheckBanStatus(ctx context.Context, userID string) (*BanStatus, error) {
	if userID == "" {
		return nil, apperr.InvalidArgument("userId is required")
	}

	var status BanStatus
	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx ledger.Tx) error {
		user, err := s.users.GetWithTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return errUserNotFound
		}
		if user.IsBanned && user.BanExpiresAt != nil && !user.BanExpiresAt.After(s.now()) {
			user.ClearBan()
			if err := s.users.SaveWithTx(tx, user); err != nil {
				return err
			}
		}
		status = BanStatus{IsBanned: user.IsBanned, BanExpiresAt: user.BanExpiresAt, BanReason: user.BanReason}
		return nil
	})
	if err != nil {
		return nil, fail("check ban status", err)
	}
	return &status, nil
}

// UnbanUser lifts any ban and resets the warning counter.
func (s *ModerationService) UnbanUser(ctx context.Context, adminID, userID string) error {
	if userID == "" {
		return apperr.InvalidArgument("userId is required")
	}

	err := s.store.RunTransaction(ctx, func(ctx context.Context, tx ledger.Tx) error {
		if err := requireAdminWithTx(ctx, tx, s.users, adminID); err != nil {
			return err
		}
		user, err := s.users.GetWithTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return errUserNotFound
		}
		user.ClearBan()
		if err := s.users.SaveWithTx(tx, user); err != nil {
			return err
		}
		return s.audit.LogWithTx(tx, adminID, domain.AuditActionUnbanUser, domain.AuditCategoryModeration,
			map[string]any{"user_id": userID})
	})
	if err != nil {
		return fail("unban user", err)
	}

	send(ctx, s.notifier, notify.Notification{UserID: userID, Kind: notify.KindUnban, Title: "Your account has been restored"})
	return nil
}

// SweepPending re-processes reports whose create event was lost.
func (s *ModerationService) SweepPending(ctx context.Context, minAge time.Duration) (int, error) {
	pending, err := s.reports.ListPending(ctx, minAge)
	if err != nil {
		return 0, err
	}
	for _, r := range pending {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if err := s.ProcessReport(ctx, r.ID); err != nil {
			logger.Warn("sweep: report processing failed", "report_id", r.ID, "error", err)
		}
	}
	return len(pending), nil
}
