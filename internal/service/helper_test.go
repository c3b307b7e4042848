package service

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"Podyom/internal/cache"
	"Podyom/internal/model"
	"Podyom/internal/testutil"
	"Podyom/pkg/curator"
)

type recordedNotice struct {
	UserID   int64
	Category string
	Text     string
}

type captureNotifier struct {
	notices []recordedNotice
}

func (c *captureNotifier) NotifyUser(_ context.Context, user *model.User, category, text string) error {
	c.notices = append(c.notices, recordedNotice{UserID: user.ID, Category: category, Text: text})
	return nil
}

func (c *captureNotifier) count(userID int64, category string) int {
	n := 0
	for _, notice := range c.notices {
		if notice.UserID == userID && notice.Category == category {
			n++
		}
	}
	return n
}

func newTestAdmission(t *testing.T) (*AdmissionService, *gorm.DB, *captureNotifier) {
	t.Helper()

	db := testutil.OpenDB(t)
	notifier := &captureNotifier{}
	svc := NewAdmissionService(db, cache.NewMemoryDedup(), notifier, curator.Disabled{}, "GMT+03:00")
	return svc, db, notifier
}

func seedChallenge(t *testing.T, db *gorm.DB) *model.Challenge {
	t.Helper()

	challenge := &model.Challenge{
		Title:     "Подъём",
		Status:    model.ChallengeStatusActive,
		Enabled:   true,
		ChannelID: 100,
		GroupID:   200,
	}
	if err := db.Create(challenge).Error; err != nil {
		t.Fatalf("failed to seed challenge: %v", err)
	}
	return challenge
}

func seedUser(t *testing.T, db *gorm.DB, telegramID int64, tz string) *model.User {
	t.Helper()

	user := &model.User{TelegramID: telegramID, Timezone: tz}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func seedParticipation(t *testing.T, db *gorm.DB, userID, challengeID int64, mode model.WakeMode, wakeLocal string) *model.Participation {
	t.Helper()

	p := &model.Participation{
		UserID:        userID,
		ChallengeID:   challengeID,
		WakeMode:      mode,
		WakeTimeLocal: wakeLocal,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("failed to seed participation: %v", err)
	}
	return p
}

// moscowTime builds a UTC instant whose GMT+03:00 local time is the
// given clock value.
func moscowTime(year int, month time.Month, day, localHour, localMinute int) time.Time {
	loc := time.FixedZone("GMT+03:00", 3*3600)
	return time.Date(year, month, day, localHour, localMinute, 0, 0, loc).UTC()
}
