package handlers

import (
	"stream_ledger/internal/domain"
	"stream_ledger/internal/service"

	"github.com/gin-gonic/gin"
)

// AssignPremium gives a user an open premium slot. Admin only.
func (h *Handler) AssignPremium(c *gin.Context) {
	adminID, ok := caller(c)
	if !ok {
		return
	}
	var req struct {
		UserID string `json:"userId"`
		SlotID string `json:"slotId"`
	}
	if !bind(c, &req) {
		return
	}
	if err := h.svc.Slots.Assign(c.Request.Context(), adminID, req.UserID, req.SlotID); err != nil {
		fail(c, err)
		return
	}
	succeed(c, "Premium slot assigned", gin.H{"userId": req.UserID, "slotId": req.SlotID})
}

// UnassignPremium releases a user's premium slot. Admin only.
func (h *Handler) UnassignPremium(c *gin.Context) {
	adminID, ok := caller(c)
	if !ok {
		return
	}
	var req struct {
		UserID string `json:"userId"`
	}
	if !bind(c, &req) {
		return
	}
	if err := h.svc.Slots.Unassign(c.Request.Context(), adminID, req.UserID); err != nil {
		fail(c, err)
		return
	}
	succeed(c, "Premium slot released", gin.H{"userId": req.UserID})
}

func (h *Handler) SendGift(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	var req struct {
		ReceiverID string `json:"receiverId"`
		GiftID     string `json:"giftId"`
	}
	if !bind(c, &req) {
		return
	}
	sent, err := h.svc.Gifts.Send(c.Request.Context(), userID, req.ReceiverID, req.GiftID)
	if err != nil {
		fail(c, err)
		return
	}
	succeed(c, "Gift sent", gin.H{"sentGiftId": sent.ID, "giftName": sent.GiftName, "cost": sent.GiftCost})
}

// RequestPayout escrows amount (in currency units) from the caller's balance.
func (h *Handler) RequestPayout(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	var req struct {
		Amount        float64             `json:"amount"`
		PayoutMethod  domain.PayoutMethod `json:"payoutMethod"`
		PayoutDetails map[string]any      `json:"payoutDetails"`
	}
	if !bind(c, &req) {
		return
	}
	payout, err := h.svc.Payouts.Request(c.Request.Context(), userID, domain.MoneyFromFloat(req.Amount), req.PayoutMethod, req.PayoutDetails)
	if err != nil {
		fail(c, err)
		return
	}
	succeed(c, "Payout requested", gin.H{"payoutRequestId": payout.ID, "amount": payout.Amount.Float()})
}

// ProcessPayout approves or rejects a pending request. Admin only.
func (h *Handler) ProcessPayout(c *gin.Context) {
	adminID, ok := caller(c)
	if !ok {
		return
	}
	var req struct {
		PayoutRequestID string              `json:"payoutRequestId"`
		Action          domain.PayoutAction `json:"action"`
	}
	if !bind(c, &req) {
		return
	}
	if err := h.svc.Payouts.Process(c.Request.Context(), adminID, req.PayoutRequestID, req.Action); err != nil {
		fail(c, err)
		return
	}
	message := "Payout approved"
	if req.Action == domain.PayoutReject {
		message = "Payout rejected"
	}
	succeed(c, message, gin.H{"payoutRequestId": req.PayoutRequestID})
}

func (h *Handler) SendFriendRequest(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	var req struct {
		ReceiverID string `json:"receiverId"`
	}
	if !bind(c, &req) {
		return
	}
	outcome, err := h.svc.Friends.SendRequest(c.Request.Context(), userID, req.ReceiverID)
	if err != nil {
		fail(c, err)
		return
	}
	message := "Friend request sent"
	if outcome == service.FriendRequestAutoAccepted {
		message = "Friend request accepted"
	}
	succeed(c, message, gin.H{"outcome": outcome})
}

func (h *Handler) RespondToFriendRequest(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	var req struct {
		RequestID string              `json:"requestId"`
		Action    domain.FriendAction `json:"action"`
	}
	if !bind(c, &req) {
		return
	}
	if err := h.svc.Friends.Respond(c.Request.Context(), userID, req.RequestID, req.Action); err != nil {
		fail(c, err)
		return
	}
	message := "Friend request accepted"
	if req.Action == domain.FriendDecline {
		message = "Friend request declined"
	}
	succeed(c, message, nil)
}

func (h *Handler) RemoveFriend(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	var req struct {
		FriendID string `json:"friendId"`
	}
	if !bind(c, &req) {
		return
	}
	if err := h.svc.Friends.RemoveFriend(c.Request.Context(), userID, req.FriendID); err != nil {
		fail(c, err)
		return
	}
	succeed(c, "Friend removed", nil)
}

func (h *Handler) SubmitReport(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	var req struct {
		ReportedEntityID   string            `json:"reportedEntityId"`
		ReportedEntityType domain.EntityType `json:"reportedEntityType"`
		Reason             string            `json:"reason"`
		Description        string            `json:"description"`
	}
	if !bind(c, &req) {
		return
	}
	report, err := h.svc.Moderation.SubmitReport(c.Request.Context(), userID, req.ReportedEntityID, req.ReportedEntityType, req.Reason, req.Description)
	if err != nil {
		fail(c, err)
		return
	}
	succeed(c, "Report submitted", gin.H{"reportId": report.ID})
}

// CheckBanStatus reports the ban state of userId, or of the caller.
func (h *Handler) CheckBanStatus(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	var req struct {
		UserID string `json:"userId"`
	}
	if !bind(c, &req) {
		return
	}
	if req.UserID == "" {
		req.UserID = userID
	}
	status, err := h.svc.Moderation.CheckBanStatus(c.Request.Context(), req.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	succeed(c, "Ban status", gin.H{
		"isBanned":     status.IsBanned,
		"banExpiresAt": status.BanExpiresAt,
		"banReason":    status.BanReason,
	})
}

// UnbanUser lifts a ban. Admin only.
func (h *Handler) UnbanUser(c *gin.Context) {
	adminID, ok := caller(c)
	if !ok {
		return
	}
	var req struct {
		UserID string `json:"userId"`
	}
	if !bind(c, &req) {
		return
	}
	if err := h.svc.Moderation.UnbanUser(c.Request.Context(), adminID, req.UserID); err != nil {
		fail(c, err)
		return
	}
	succeed(c, "User unbanned", gin.H{"userId": req.UserID})
}

// InitializeSettings creates the platform settings once. Admin only.
func (h *Handler) InitializeSettings(c *gin.Context) {
	adminID, ok := caller(c)
	if !ok {
		return
	}
	var req service.SettingsInput
	if !bind(c, &req) {
		return
	}
	if err := h.svc.Settings.Initialize(c.Request.Context(), adminID, req); err != nil {
		fail(c, err)
		return
	}
	succeed(c, "Settings initialized", nil)
}

func (h *Handler) PostMessage(c *gin.Context) {
	userID, ok := caller(c)
	if !ok {
		return
	}
	var req struct {
		RoomID           string `json:"roomId"`
		Text             string `json:"text"`
		EphemeralSeconds int    `json:"ephemeralSeconds"`
	}
	if !bind(c, &req) {
		return
	}
	msg, err := h.svc.Reaper.PostMessage(c.Request.Context(), userID, req.RoomID, req.Text, req.EphemeralSeconds)
	if err != nil {
		fail(c, err)
		return
	}
	succeed(c, "Message posted", gin.H{"messageId": msg.ID, "deleteAt": msg.DeleteAt})
}
