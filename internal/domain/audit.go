package domain

import "time"

// AuditLog records a privileged or money-moving action
type AuditLog struct {
	ID        string         `json:"-"`
	UserID    string         `json:"userId"`
	Action    string         `json:"action"`
	Category  string         `json:"category"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Audit action categories
const (
	AuditCategoryPremium    = "premium"
	AuditCategoryPayout     = "payout"
	AuditCategoryModeration = "moderation"
	AuditCategoryAdmin      = "admin"
)

// Audit actions
const (
	// Premium actions
	AuditActionPremiumAssign   = "premium_assign"
	AuditActionPremiumUnassign = "premium_unassign"

	// Payout actions
	AuditActionPayoutApprove = "payout_approve"
	AuditActionPayoutReject  = "payout_reject"

	// Moderation actions
	AuditActionUnbanUser = "unban_user"

	// Admin actions
	AuditActionInitSettings = "init_settings"
)
