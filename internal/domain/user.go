package domain

import (
	"slices"
	"time"
)

type User struct {
	ID          string    `json:"-"`
	DisplayName string    `json:"displayName,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`

	Balance Money `json:"balance"`
	Coins   int64 `json:"coins"`

	IsPremiumAccount bool   `json:"isPremiumAccount"`
	PremiumSlotID    string `json:"premiumSlotId,omitempty"`

	Friends                []string `json:"friends"`
	SentFriendRequests     []string `json:"sentFriendRequests"`
	ReceivedFriendRequests []string `json:"receivedFriendRequests"`

	WarningCount int        `json:"warningCount"`
	IsBanned     bool       `json:"isBanned"`
	BanExpiresAt *time.Time `json:"banExpiresAt"`
	BanReason    string     `json:"banReason,omitempty"`
	TempBanCount int        `json:"tempBanCount"`

	IsAdmin bool `json:"isAdmin"`
}

// HasFriend reports whether id is in the user's friend set.
func (u *User) HasFriend(id string) bool {
	return slices.Contains(u.Friends, id)
}

// ClearBan lifts any ban and resets the warning counter.
func (u *User) ClearBan() {
	u.IsBanned = false
	u.BanExpiresAt = nil
	u.BanReason = ""
	u.WarningCount = 0
}

// AddID inserts id into a sorted id set.
func AddID(set []string, id string) []string {
	i, found := slices.BinarySearch(set, id)
	if found {
		return set
	}
	return slices.Insert(set, i, id)
}

// RemoveID deletes id from a sorted id set.
func RemoveID(set []string, id string) []string {
	i, found := slices.BinarySearch(set, id)
	if !found {
		return set
	}
	return slices.Delete(set, i, i+1)
}

// ContainsID reports whether a sorted id set holds id.
func ContainsID(set []string, id string) bool {
	_, found := slices.BinarySearch(set, id)
	return found
}
