package sweep

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"Podyom/internal/model"
	"Podyom/internal/service"
	"Podyom/internal/testutil"
	"Podyom/pkg/messenger"
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

func (c *captureNotifier) last(userID int64, category string) string {
	for i := len(c.notices) - 1; i >= 0; i-- {
		if c.notices[i].UserID == userID && c.notices[i].Category == category {
			return c.notices[i].Text
		}
	}
	return ""
}

type penaltyFixture struct {
	sweep     *PenaltySweep
	db        *gorm.DB
	notifier  *captureNotifier
	gateway   *messenger.Mock
	challenge *model.Challenge
}

func newPenaltyFixture(t *testing.T) *penaltyFixture {
	t.Helper()

	db := testutil.OpenDB(t)
	notifier := &captureNotifier{}
	gateway := messenger.NewMock()
	buddy := service.NewBuddyService(db, notifier, gateway)

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

	return &penaltyFixture{
		sweep:     NewPenaltySweep(db, notifier, buddy, 0, 10),
		db:        db,
		notifier:  notifier,
		gateway:   gateway,
		challenge: challenge,
	}
}

func (f *penaltyFixture) seedParticipant(t *testing.T, telegramID int64, wakeLocal string) (*model.User, *model.Participation) {
	t.Helper()

	user := &model.User{TelegramID: telegramID, Timezone: "GMT+03:00"}
	if err := f.db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	p := &model.Participation{
		UserID:        user.ID,
		ChallengeID:   f.challenge.ID,
		WakeMode:      model.WakeModeFixed,
		WakeTimeLocal: wakeLocal,
	}
	if err := f.db.Create(p).Error; err != nil {
		t.Fatalf("failed to seed participation: %v", err)
	}

	return user, p
}

func (f *penaltyFixture) seedTap(t *testing.T, userID int64, localDate string, at time.Time) {
	t.Helper()

	checkIn := &model.CheckIn{
		UserID:      userID,
		ChallengeID: f.challenge.ID,
		Source:      model.CheckInSourceGroupTap,
		Status:      model.CheckInStatusApproved,
		LocalDate:   localDate,
		OccurredAt:  at,
	}
	if err := f.db.Create(checkIn).Error; err != nil {
		t.Fatalf("failed to seed tap: %v", err)
	}
}

func assignPair(t *testing.T, f *penaltyFixture, aID, bID int64) *model.BuddyPair {
	t.Helper()

	pair := &model.BuddyPair{
		ParticipationAID: aID,
		ParticipationBID: bID,
		Status:           model.BuddyPairStatusActive,
	}
	if err := f.db.Create(pair).Error; err != nil {
		t.Fatalf("failed to seed buddy pair: %v", err)
	}
	return pair
}

type failingNotifier struct {
	inner   *captureNotifier
	failFor map[int64]bool
}

func (n *failingNotifier) NotifyUser(ctx context.Context, user *model.User, category, text string) error {
	if n.failFor[user.ID] {
		return fmt.Errorf("gateway unavailable")
	}
	return n.inner.NotifyUser(ctx, user, category, text)
}

// moscowTime builds a UTC instant from a GMT+03:00 local clock value.
func moscowTime(year int, month time.Month, day, localHour, localMinute int) time.Time {
	loc := time.FixedZone("GMT+03:00", 3*3600)
	return time.Date(year, month, day, localHour, localMinute, 0, 0, loc).UTC()
}
