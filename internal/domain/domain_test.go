package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoney(t *testing.T) {
	assert.Equal(t, Money(100), CoinsToMoney(1))
	assert.Equal(t, Money(50), CoinsToMoney(1).MulRate(0.5))
	assert.Equal(t, Money(33), CoinsToMoney(1).MulRate(1.0/3))
	assert.Equal(t, Money(1234), MoneyFromFloat(12.34))
	assert.Equal(t, "1.50", Money(150).String())
	assert.Equal(t, "-0.05", Money(-5).String())
}

func TestIDSet(t *testing.T) {
	var s []string
	s = AddID(s, "b")
	s = AddID(s, "a")
	s = AddID(s, "b")
	assert.Equal(t, []string{"a", "b"}, s)
	assert.True(t, ContainsID(s, "a"))

	s = RemoveID(s, "a")
	s = RemoveID(s, "zz")
	assert.Equal(t, []string{"b"}, s)
}

func TestSettingsSlots(t *testing.T) {
	s := &Settings{
		PremiumSlots:             map[string]string{"s1": "u1", "s2": ""},
		PremiumPayoutPercentage:  0.8,
		StandardPayoutPercentage: 0.5,
	}
	assert.Equal(t, 1, s.OccupiedSlots())
	assert.Equal(t, "s1", s.SlotOf("u1"))
	assert.Equal(t, "", s.SlotOf("u2"))
	assert.Equal(t, 0.8, s.PayoutRate(true))
	assert.Equal(t, DefaultPlatformFee, s.PlatformFee())

	zero := 0.0
	s.PlatformFeePercentage = &zero
	assert.Equal(t, 0.0, s.PlatformFee())
}

func TestFriendRequestID_Injective(t *testing.T) {
	assert.NotEqual(t, FriendRequestID("y", "z_x"), FriendRequestID("y_z", "x"))
	assert.NotEqual(t, FriendRequestID("a", "b"), FriendRequestID("b", "a"))
	assert.Equal(t, FriendRequestID("a", "b"), FriendRequestID("a", "b"))

	fr := &FriendRequest{SenderID: "a", ReceiverID: "b"}
	assert.True(t, fr.Between("a", "b"))
	assert.False(t, fr.Between("b", "a"))
}
