package model

// LedgerEntry is an append-only idempotency marker. The reason string
// encodes kind and local date, e.g. "miss:2026-08-23" or
// "penalty_notice:2026-08-23". Rows are never mutated; re-running a
// sweep re-inserts nothing thanks to the unique index.
type LedgerEntry struct {
	BaseModel
	UserID      int64  `gorm:"not null;uniqueIndex:idx_ledger_user_challenge_reason" json:"user_id"`
	ChallengeID int64  `gorm:"not null;uniqueIndex:idx_ledger_user_challenge_reason" json:"challenge_id"`
	Reason      string `gorm:"type:varchar(128);not null;uniqueIndex:idx_ledger_user_challenge_reason" json:"reason"`
	Note        string `gorm:"type:varchar(256)" json:"note,omitempty"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// Marker reason kinds. Date-scoped kinds append ":<local-date>".
const (
	ReasonMiss            = "miss"
	ReasonPenaltyNotice   = "penalty_notice"
	ReasonPenaltyChoice   = "penalty_choice"
	ReasonFineIntent      = "fine_intent"
	ReasonFinePaid        = "fine_paid"
	ReasonKick            = "kick"
	ReasonBuddyKick       = "buddy_kick"
	ReasonTapRejectNotice = "tap_reject_notice"
	ReasonTrialOffer      = "trial_offer"
	ReasonRefundNotice    = "refund_notice"
	ReasonChatInvite      = "chat_invite"
	ReasonRenewPrompt     = "renew_prompt"
	ReasonExpiryNotice    = "expiry_notice"
	ReasonExpiryKick      = "expiry_kick"
)
