package service

import (
	"stream_ledger/internal/events"
	"stream_ledger/internal/repository"
)

// RegisterEventHandlers wires the create-triggered reactions.
func RegisterEventHandlers(d *events.Dispatcher, gifts *GiftService, moderation *ModerationService, reaper *ReaperService) {
	d.Handle(repository.CollSentGifts, gifts.CreditSentGift)
	d.Handle(repository.CollReports, moderation.ProcessReport)
	d.Handle(repository.CollMessages, reaper.HandleMessageCreated)
}
