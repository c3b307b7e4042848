package model

// ChallengeStatus is the lifecycle state of a challenge run.
type ChallengeStatus string

const (
	ChallengeStatusDraft    ChallengeStatus = "draft"
	ChallengeStatusActive   ChallengeStatus = "active"
	ChallengeStatusFinished ChallengeStatus = "finished"
)

// Challenge is one recurring wake-up challenge run. Enabled is the
// global kill switch independent of status.
type Challenge struct {
	BaseModel
	Title     string          `gorm:"type:varchar(128);not null" json:"title"`
	Status    ChallengeStatus `gorm:"type:varchar(16);not null;default:'draft';index" json:"status"`
	Enabled   bool            `gorm:"not null;default:true" json:"enabled"`
	ChannelID int64           `gorm:"not null" json:"channel_id"`
	GroupID   int64           `gorm:"not null" json:"group_id"`
}

func (Challenge) TableName() string {
	return "challenges"
}
