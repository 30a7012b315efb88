package domain

import "time"

type MessageStatus string

const (
	MessageActive          MessageStatus = "active"
	MessagePendingDeletion MessageStatus = "pending_deletion"
)

type Message struct {
	ID          string        `json:"-"`
	RoomID      string        `json:"roomId"`
	SenderID    string        `json:"senderId"`
	Text        string        `json:"text"`
	IsEphemeral bool          `json:"isEphemeral"`
	DeleteAt    *time.Time    `json:"deleteAt"`
	Status      MessageStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// Expired reports whether an ephemeral message is due for deletion at now.
func (m *Message) Expired(now time.Time) bool {
	return m.IsEphemeral && m.DeleteAt != nil && !m.DeleteAt.After(now)
}

// OwnedEntity is any reportable document that names its author.
type OwnedEntity struct {
	UserID string `json:"userId"`
}
