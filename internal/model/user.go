package model

import "time"

// User is created on first contact and never deleted. Timezone is the
// canonical GMT±HH:MM form or an IANA zone name.
type User struct {
	BaseModel
	TelegramID int64      `gorm:"not null;uniqueIndex" json:"telegram_id"`
	Username   string     `gorm:"type:varchar(64)" json:"username"`
	FirstName  string     `gorm:"type:varchar(128)" json:"first_name"`
	Timezone   string     `gorm:"type:varchar(64);not null;default:'GMT+03:00'" json:"timezone"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}

func (User) TableName() string {
	return "users"
}
