// Package repository maps domain types onto ledger documents.
package repository

import (
	"context"
	"errors"

	"stream_ledger/internal/ledger"

	"github.com/google/uuid"
)

// Collections
const (
	CollUsers            = "users"
	CollSettings         = "settings"
	CollGifts            = "gifts"
	CollSentGifts        = "sentGifts"
	CollGiftCredits      = "giftCredits"
	CollTransactions     = "transactions"
	CollPayoutRequests   = "payoutRequests"
	CollFriendRequests   = "friendRequests"
	CollReports          = "reports"
	CollViolations       = "violations"
	CollMessages         = "messages"
	CollVideos           = "videos"
	CollComments         = "comments"
	CollStreams          = "streams"
	CollPlatformRevenue  = "platformRevenue"
	CollRevenueSummaries = "revenueSummaries"
	CollAuditLogs        = "auditLogs"
)

// getWithTx reads ref into dst and reports whether it exists.
func getWithTx(ctx context.Context, tx ledger.Tx, ref ledger.Ref, dst any) (bool, error) {
	err := tx.Get(ctx, ref, dst)
	if errors.Is(err, ledger.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func newID() string {
	return uuid.NewString()
}

// decodeAll decodes listed documents, handing each its id.
func decodeAll[T any](docs []ledger.Document, setID func(*T, string)) ([]*T, error) {
	out := make([]*T, 0, len(docs))
	for _, doc := range docs {
		v := new(T)
		if err := doc.Decode(v); err != nil {
			return nil, err
		}
		setID(v, doc.Ref.ID)
		out = append(out, v)
	}
	return out, nil
}
