package domain

import "time"

// Gift is a catalog entry. Cost is in coins.
type Gift struct {
	ID   string `json:"-"`
	Name string `json:"name"`
	Cost int64  `json:"cost"`
}

// SentGift records one gift from sender to receiver. Its id keys the credit.
type SentGift struct {
	ID             string     `json:"-"`
	SenderID       string     `json:"senderId"`
	ReceiverID     string     `json:"receiverId"`
	GiftID         string     `json:"giftId"`
	GiftName       string     `json:"giftName"`
	GiftCost       int64      `json:"giftCost"`
	Timestamp      time.Time  `json:"timestamp"`
	Credited       bool       `json:"credited"`
	CreditedAmount Money      `json:"creditedAmount"`
	CreditedAt     *time.Time `json:"creditedAt,omitempty"`
}

// GiftCredit marks a SentGift as paid out. Stored under the SentGift id.
type GiftCredit struct {
	ReceiverID string    `json:"receiverId"`
	Amount     Money     `json:"amount"`
	Rate       float64   `json:"rate"`
	CreatedAt  time.Time `json:"createdAt"`
}
