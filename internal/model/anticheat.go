package model

import "time"

type AntiCheatStatus string

const (
	AntiCheatStatusPending AntiCheatStatus = "pending"
	AntiCheatStatusPassed  AntiCheatStatus = "passed"
	AntiCheatStatusFailed  AntiCheatStatus = "failed"
	AntiCheatStatusExpired AntiCheatStatus = "expired"
)

// AntiCheatChallenge is 1:1 with a pending check-in. Terminal states
// are immutable.
type AntiCheatChallenge struct {
	BaseModel
	CheckInID int64           `gorm:"not null;uniqueIndex" json:"check_in_id"`
	UserID    int64           `gorm:"not null;index" json:"user_id"`
	Question  string          `gorm:"type:varchar(128);not null" json:"question"`
	Answer    int             `gorm:"not null" json:"-"`
	Attempts  int             `gorm:"not null;default:0" json:"attempts"`
	Status    AntiCheatStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	ExpiresAt time.Time       `gorm:"not null" json:"expires_at"`
}

func (AntiCheatChallenge) TableName() string {
	return "anti_cheat_challenges"
}

func (c *AntiCheatChallenge) IsTerminal() bool {
	return c.Status != AntiCheatStatusPending
}
