package domain

import (
	"strconv"
	"time"
)

type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestDeclined FriendRequestStatus = "declined"
)

type FriendAction string

const (
	FriendAccept  FriendAction = "accept"
	FriendDecline FriendAction = "decline"
)

type FriendRequest struct {
	ID          string              `json:"-"`
	SenderID    string              `json:"senderId"`
	ReceiverID  string              `json:"receiverId"`
	Status      FriendRequestStatus `json:"status"`
	CreatedAt   time.Time           `json:"createdAt"`
	RespondedAt *time.Time          `json:"respondedAt,omitempty"`
}

// FriendRequestID is the document id for the ordered pair, so a pair can
// only ever have one request document. The sender length prefix keeps ids
// that contain the separator from colliding.
func FriendRequestID(senderID, receiverID string) string {
	return strconv.Itoa(len(senderID)) + ":" + senderID + "_" + receiverID
}

// Between reports whether the request was sent by senderID to receiverID.
func (r *FriendRequest) Between(senderID, receiverID string) bool {
	return r.SenderID == senderID && r.ReceiverID == receiverID
}
