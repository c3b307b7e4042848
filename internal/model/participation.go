package model

import "time"

// WakeMode: fixed commits to a clock time, flex is exempt from the
// window and penalty checks.
type WakeMode string

const (
	WakeModeFixed WakeMode = "fixed"
	WakeModeFlex  WakeMode = "flex"
)

// AllowedWakeTimes is the wake-time allow-list for fixed mode.
var AllowedWakeTimes = []string{"05:00", "06:00", "07:00", "08:00", "09:00"}

// Participation links a user to a challenge. Unique per (user,
// challenge); re-activation clears LeftAt. WakeUTCMinutes is derived
// and only meaningful in fixed mode.
type Participation struct {
	BaseModel
	UserID         int64      `gorm:"not null;uniqueIndex:idx_participations_user_challenge" json:"user_id"`
	ChallengeID    int64      `gorm:"not null;uniqueIndex:idx_participations_user_challenge" json:"challenge_id"`
	WakeMode       WakeMode   `gorm:"type:varchar(8);not null;default:'fixed'" json:"wake_mode"`
	WakeTimeLocal  string     `gorm:"type:varchar(5)" json:"wake_time_local"`
	WakeUTCMinutes *int       `json:"wake_utc_minutes,omitempty"`
	LeftAt         *time.Time `gorm:"index" json:"left_at,omitempty"`
	TrialStartedAt *time.Time `json:"trial_started_at,omitempty"`
}

func (Participation) TableName() string {
	return "participations"
}

func (p *Participation) IsActive() bool {
	return p.LeftAt == nil
}

func IsAllowedWakeTime(hhmm string) bool {
	for _, t := range AllowedWakeTimes {
		if t == hhmm {
			return true
		}
	}
	return false
}
