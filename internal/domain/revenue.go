package domain

import "time"

type RevenueSource string

const (
	RevenuePayoutFee RevenueSource = "payout_fee"
	RevenueGiftShare RevenueSource = "gift_share"
)

type PlatformRevenue struct {
	ID          string        `json:"-"`
	Source      RevenueSource `json:"source"`
	Amount      Money         `json:"amount"`
	ReferenceID string        `json:"referenceId"`
	Timestamp   time.Time     `json:"timestamp"`
	Aggregated  bool          `json:"aggregated"`
}

// RevenueSummary totals platform revenue for one calendar month.
type RevenueSummary struct {
	Month      string                  `json:"month"`
	Total      Money                   `json:"total"`
	BySource   map[RevenueSource]Money `json:"bySource"`
	EntryCount int                     `json:"entryCount"`
	UpdatedAt  time.Time               `json:"updatedAt"`
}

// RevenueMonth is the summary key for t, in UTC.
func RevenueMonth(t time.Time) string {
	return t.UTC().Format("2006-01")
}
