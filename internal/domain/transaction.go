package domain

import "time"

type Currency string

const (
	CurrencyCoins   Currency = "coins"
	CurrencyBalance Currency = "balance"
)

// Transaction types
const (
	TxGiftSent        = "gift_sent"
	TxGiftReceived    = "gift_received"
	TxPayoutRequest   = "payout_request"
	TxPayoutCompleted = "payout_completed"
	TxPayoutRefund    = "payout_refund"
)

type Transaction struct {
	ID        string         `json:"-"`
	UserID    string         `json:"userId"`
	Type      string         `json:"type"`
	Amount    int64          `json:"amount"`
	Currency  Currency       `json:"currency"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}
