package domain

// SettingsID is the id of the singleton settings document.
const SettingsID = "global"

// DefaultPlatformFee applies when settings do not name a fee.
const DefaultPlatformFee = 0.10

type Settings struct {
	PremiumPayoutPercentage  float64           `json:"premiumPayoutPercentage"`
	StandardPayoutPercentage float64           `json:"standardPayoutPercentage"`
	MaxPremiumSlots          int               `json:"maxPremiumSlots"`
	PremiumSlots             map[string]string `json:"premiumSlots"`
	PlatformFeePercentage    *float64          `json:"platformFeePercentage,omitempty"`
}

// OccupiedSlots counts slots held by a user.
func (s *Settings) OccupiedSlots() int {
	n := 0
	for _, holder := range s.PremiumSlots {
		if holder != "" {
			n++
		}
	}
	return n
}

// SlotHolder returns the user holding slotID, or "".
func (s *Settings) SlotHolder(slotID string) string {
	return s.PremiumSlots[slotID]
}

// SlotOf returns the slot held by userID, or "".
func (s *Settings) SlotOf(userID string) string {
	for slot, holder := range s.PremiumSlots {
		if holder == userID {
			return slot
		}
	}
	return ""
}

// PayoutRate is the share of a gift's value credited to its receiver.
func (s *Settings) PayoutRate(premium bool) float64 {
	if premium {
		return s.PremiumPayoutPercentage
	}
	return s.StandardPayoutPercentage
}

// PlatformFee returns the payout fee rate. An unset fee means the default;
// an explicit zero waives the fee.
func (s *Settings) PlatformFee() float64 {
	if s.PlatformFeePercentage == nil {
		return DefaultPlatformFee
	}
	return *s.PlatformFeePercentage
}
