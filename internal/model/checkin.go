package model

import "time"

type CheckInSource string

const (
	CheckInSourceGroupTap CheckInSource = "group_tap"
	CheckInSourceVoice    CheckInSource = "voice"
	CheckInSourceText     CheckInSource = "text"
)

type CheckInStatus string

const (
	CheckInStatusPending  CheckInStatus = "pending"
	CheckInStatusApproved CheckInStatus = "approved"
	CheckInStatusRejected CheckInStatus = "rejected"
)

// CheckIn is one admission decision. Voice/text rows start pending and
// only the anti-cheat pass moves them to approved; group taps resolve
// immediately. Rejections are persisted for audit and penalty
// accounting.
type CheckIn struct {
	BaseModel
	UserID       int64         `gorm:"not null;index:idx_check_ins_user_challenge_date" json:"user_id"`
	ChallengeID  int64         `gorm:"not null;index:idx_check_ins_user_challenge_date" json:"challenge_id"`
	Source       CheckInSource `gorm:"type:varchar(16);not null" json:"source"`
	Status       CheckInStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	RejectReason string        `gorm:"type:varchar(64)" json:"reject_reason,omitempty"`
	LocalDate    string        `gorm:"type:varchar(10);not null;index:idx_check_ins_user_challenge_date" json:"local_date"`
	OccurredAt   time.Time     `gorm:"not null" json:"occurred_at"`
	Transcript   string        `gorm:"type:text" json:"transcript,omitempty"`
}

func (CheckIn) TableName() string {
	return "check_ins"
}
