package domain

import "time"

type PayoutStatus string

const (
	PayoutPending   PayoutStatus = "pending"
	PayoutCompleted PayoutStatus = "completed"
	PayoutRejected  PayoutStatus = "rejected"
)

type PayoutMethod string

const (
	PayoutPayPal       PayoutMethod = "paypal"
	PayoutBankTransfer PayoutMethod = "bank_transfer"
)

func (m PayoutMethod) Valid() bool {
	return m == PayoutPayPal || m == PayoutBankTransfer
}

// PayoutAction is an admin decision on a pending request.
type PayoutAction string

const (
	PayoutApprove PayoutAction = "approve"
	PayoutReject  PayoutAction = "reject"
)

type PayoutRequest struct {
	ID            string         `json:"-"`
	UserID        string         `json:"userId"`
	Amount        Money          `json:"amount"`
	PayoutMethod  PayoutMethod   `json:"payoutMethod"`
	PayoutDetails map[string]any `json:"payoutDetails,omitempty"`
	Status        PayoutStatus   `json:"status"`
	CreatedAt     time.Time      `json:"createdAt"`
	ProcessedAt   *time.Time     `json:"processedAt,omitempty"`
	ProcessedBy   string         `json:"processedBy,omitempty"`
}
