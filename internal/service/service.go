package service

import (
	"context"
	"errors"
	"time"

	"stream_ledger/internal/apperr"
	"stream_ledger/internal/ledger"
	"stream_ledger/internal/logger"
	"stream_ledger/internal/notify"
	"stream_ledger/internal/repository"
)

var (
	errSettingsMissing = apperr.FailedPrecondition("settings not initialized")
	errUserNotFound    = apperr.NotFound("user not found")
	errAdminRequired   = apperr.PermissionDenied("admin privileges required")
)

// fail converts an error escaping a transaction to the public taxonomy.
// Anything that is not already an apperr is logged and hidden as internal.
func fail(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, ledger.ErrContention) {
		logger.Warn(op+": contention", "error", err)
	} else {
		logger.Error(op+" failed", "error", err)
	}
	return apperr.Internal(err)
}

// requireAdminWithTx reads the caller inside tx so the privileged write
// commits only if the caller was still an admin.
func requireAdminWithTx(ctx context.Context, tx ledger.Tx, users *repository.UserRepository, callerID string) error {
	caller, err := users.GetWithTx(ctx, tx, callerID)
	if err != nil {
		return err
	}
	if caller == nil || !caller.IsAdmin {
		return errAdminRequired
	}
	return nil
}

func send(ctx context.Context, n notify.Notifier, msg notify.Notification) {
	if n == nil {
		return
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if err := n.Notify(ctx, msg); err != nil {
		logger.Warn("notification not delivered", "user_id", msg.UserID, "kind", msg.Kind, "error", err)
	}
}

func utcNow() time.Time {
	return time.Now().UTC()
}
