package domain

import "time"

// TempBanDuration is how long a temporary ban lasts.
const TempBanDuration = 72 * time.Hour

type EntityType string

const (
	EntityUser    EntityType = "user"
	EntityVideo   EntityType = "video"
	EntityComment EntityType = "comment"
	EntityMessage EntityType = "message"
	EntityStream  EntityType = "stream"
)

func (t EntityType) Valid() bool {
	switch t {
	case EntityUser, EntityVideo, EntityComment, EntityMessage, EntityStream:
		return true
	}
	return false
}

type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportResolved ReportStatus = "resolved"
	ReportRejected ReportStatus = "rejected"
)

// RejectNoUserFound is the rejection reason when no owner can be resolved.
const RejectNoUserFound = "no_user_found"

type ModerationAction string

const (
	ActionNone         ModerationAction = "none"
	ActionWarning1     ModerationAction = "warning_1"
	ActionWarning2     ModerationAction = "warning_2"
	ActionTemporaryBan ModerationAction = "temporary_ban"
	ActionPermanentBan ModerationAction = "permanent_ban"
)

type Report struct {
	ID                 string           `json:"-"`
	ReporterID         string           `json:"reporterId"`
	ReportedEntityID   string           `json:"reportedEntityId"`
	ReportedEntityType EntityType       `json:"reportedEntityType"`
	Reason             string           `json:"reason"`
	Description        string           `json:"description,omitempty"`
	Status             ReportStatus     `json:"status"`
	RejectionReason    string           `json:"rejectionReason,omitempty"`
	Action             ModerationAction `json:"action,omitempty"`
	ResolvedUserID     string           `json:"resolvedUserId,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
	ResolvedAt         *time.Time       `json:"resolvedAt,omitempty"`
}

type Violation struct {
	ID           string           `json:"-"`
	UserID       string           `json:"userId"`
	ReportID     string           `json:"reportId"`
	Type         string           `json:"type"`
	Level        int              `json:"level"`
	Action       ModerationAction `json:"action"`
	BanExpiresAt *time.Time       `json:"banExpiresAt"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// PenaltyKind tags a PenaltyState.
type PenaltyKind int

const (
	PenaltyClean PenaltyKind = iota
	PenaltyWarned
	PenaltyTempBanned
	PenaltyPermaBanned
)

func (k PenaltyKind) String() string {
	switch k {
	case PenaltyClean:
		return "clean"
	case PenaltyWarned:
		return "warned"
	case PenaltyTempBanned:
		return "temp_banned"
	case PenaltyPermaBanned:
		return "perma_banned"
	}
	return "unknown"
}

// PenaltyState is a user's standing. Warnings is set only for PenaltyWarned,
// Until only for PenaltyTempBanned.
type PenaltyState struct {
	Kind     PenaltyKind
	Warnings int
	Until    time.Time
}

// PenaltyStateOf derives the standing of u at now. An expired temporary ban
// reads as clean.
func PenaltyStateOf(u *User, now time.Time) PenaltyState {
	if u.IsBanned {
		if u.BanExpiresAt == nil {
			return PenaltyState{Kind: PenaltyPermaBanned}
		}
		if u.BanExpiresAt.After(now) {
			return PenaltyState{Kind: PenaltyTempBanned, Until: *u.BanExpiresAt}
		}
		return PenaltyState{Kind: PenaltyClean}
	}
	if u.WarningCount > 0 {
		return PenaltyState{Kind: PenaltyWarned, Warnings: u.WarningCount}
	}
	return PenaltyState{Kind: PenaltyClean}
}

// Penalty is the outcome of one upheld report.
type Penalty struct {
	Action ModerationAction
	// Level is the warning count the report pushed the user to.
	Level int
	Next  PenaltyState
}

// NextPenalty applies one upheld report to s.
func NextPenalty(s PenaltyState, now time.Time) Penalty {
	switch s.Kind {
	case PenaltyPermaBanned:
		return Penalty{Action: ActionNone, Next: s}
	case PenaltyTempBanned:
		return Penalty{Action: ActionPermanentBan, Level: 4, Next: PenaltyState{Kind: PenaltyPermaBanned}}
	}

	level := s.Warnings + 1
	switch {
	case level == 1:
		return Penalty{Action: ActionWarning1, Level: level, Next: PenaltyState{Kind: PenaltyWarned, Warnings: 1}}
	case level == 2:
		return Penalty{Action: ActionWarning2, Level: level, Next: PenaltyState{Kind: PenaltyWarned, Warnings: 2}}
	case level == 3:
		return Penalty{Action: ActionTemporaryBan, Level: level, Next: PenaltyState{Kind: PenaltyTempBanned, Until: now.Add(TempBanDuration)}}
	default:
		return Penalty{Action: ActionPermanentBan, Level: level, Next: PenaltyState{Kind: PenaltyPermaBanned}}
	}
}

// ApplyPenalty writes the penalty's resulting state onto u.
func (u *User) ApplyPenalty(p Penalty, reason string) {
	switch p.Next.Kind {
	case PenaltyWarned:
		// a lapsed temporary ban may still be on the record
		u.ClearBan()
		u.WarningCount = p.Next.Warnings
	case PenaltyTempBanned:
		until := p.Next.Until
		u.IsBanned = true
		u.BanExpiresAt = &until
		u.BanReason = reason
		u.WarningCount = 0
		u.TempBanCount++
	case PenaltyPermaBanned:
		if p.Action == ActionNone {
			return
		}
		u.IsBanned = true
		u.BanExpiresAt = nil
		u.BanReason = reason
		u.WarningCount = 0
	case PenaltyClean:
		u.ClearBan()
	}
}

// IsBan reports whether the action bans the user.
func (a ModerationAction) IsBan() bool {
	return a == ActionTemporaryBan || a == ActionPermanentBan
}
