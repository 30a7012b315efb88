package middleware

import (
	"context"
	"errors"

	"stream_ledger/internal/apperr"
	"stream_ledger/internal/service"

	"github.com/gin-gonic/gin"
)

// BanChecker is the single accessor for a user's ban state.
type BanChecker interface {
	CheckBanStatus(ctx context.Context, userID string) (*service.BanStatus, error)
}

// BanGuard blocks banned callers. It runs after JWT.
func BanGuard(bans BanChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			abort(c, apperr.Unauthenticated("authentication required"))
			return
		}

		status, err := bans.CheckBanStatus(c.Request.Context(), userID)
		if err != nil {
			var ae *apperr.Error
			if !errors.As(err, &ae) {
				ae = apperr.Internal(err)
			}
			abort(c, ae)
			return
		}
		if status.IsBanned {
			abort(c, apperr.PermissionDenied("account is banned"))
			return
		}
		c.Next()
	}
}
