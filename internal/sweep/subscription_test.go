package sweep

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"Podyom/internal/model"
	"Podyom/internal/service"
	"Podyom/internal/testutil"
	"Podyom/pkg/messenger"
)

type subscriptionFixture struct {
	sweep     *SubscriptionSweep
	db        *gorm.DB
	notifier  *captureNotifier
	gateway   *messenger.Mock
	challenge *model.Challenge
}

func newSubscriptionFixture(t *testing.T) *subscriptionFixture {
	t.Helper()

	db := testutil.OpenDB(t)
	notifier := &captureNotifier{}
	gateway := messenger.NewMock()
	access := service.NewAccessService(db, notifier)

	challenge := &model.Challenge{
		Title:   "Подъём",
		Status:  model.ChallengeStatusActive,
		Enabled: true,
		GroupID: 200,
	}
	if err := db.Create(challenge).Error; err != nil {
		t.Fatalf("failed to seed challenge: %v", err)
	}

	return &subscriptionFixture{
		sweep:     NewSubscriptionSweep(db, access, notifier, gateway, 0, 10),
		db:        db,
		notifier:  notifier,
		gateway:   gateway,
		challenge: challenge,
	}
}

func (f *subscriptionFixture) seedPaidParticipant(t *testing.T, telegramID int64, plan string, paidAt time.Time) (*model.User, *model.Participation) {
	t.Helper()

	user := &model.User{TelegramID: telegramID, Timezone: "GMT+03:00"}
	if err := f.db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	p := &model.Participation{
		UserID:        user.ID,
		ChallengeID:   f.challenge.ID,
		WakeMode:      model.WakeModeFixed,
		WakeTimeLocal: "07:00",
	}
	if err := f.db.Create(p).Error; err != nil {
		t.Fatalf("failed to seed participation: %v", err)
	}

	payment := &model.Payment{
		UserID:   user.ID,
		PlanCode: plan,
		Status:   model.PaymentStatusPaid,
		PaidAt:   &paidAt,
	}
	if err := f.db.Create(payment).Error; err != nil {
		t.Fatalf("failed to seed payment: %v", err)
	}

	return user, p
}

func TestSubscriptionRenewReminder(t *testing.T) {
	f := newSubscriptionFixture(t)
	ctx := context.Background()

	paidAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	user, _ := f.seedPaidParticipant(t, 1001, model.PlanP30, paidAt)
	expiry := paidAt.AddDate(0, 0, 30)

	// Two days before expiry: reminder fires once.
	now := expiry.Add(-47 * time.Hour)
	if _, err := f.sweep.Run(ctx, now, false); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := f.sweep.Run(ctx, now.Add(time.Hour), false); err != nil {
		t.Fatalf("second run: %v", err)
	}

	if got := f.notifier.count(user.ID, "renew"); got != 1 {
		t.Errorf("renew reminders = %d, want exactly 1", got)
	}
}

func TestSubscriptionExpiryStopsParticipation(t *testing.T) {
	f := newSubscriptionFixture(t)
	ctx := context.Background()

	paidAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	user, p := f.seedPaidParticipant(t, 1002, model.PlanP30, paidAt)
	expiry := paidAt.AddDate(0, 0, 30)

	now := expiry.Add(2 * time.Hour)
	summary, err := f.sweep.Run(ctx, now, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Notified != 1 {
		t.Fatalf("notified = %d, want 1, summary %+v", summary.Notified, summary)
	}

	var reloaded model.Participation
	f.db.First(&reloaded, p.ID)
	if reloaded.LeftAt == nil {
		t.Error("participation should be stopped at expiry")
	}
	if got := f.notifier.count(user.ID, "expiry"); got != 1 {
		t.Errorf("expiry prompts = %d, want 1", got)
	}

	// Group removal waits for the final grace day.
	if len(f.gateway.Removed) != 0 {
		t.Errorf("removed too early: %v", f.gateway.Removed)
	}
}

func TestSubscriptionKickAfterGraceDay(t *testing.T) {
	f := newSubscriptionFixture(t)
	ctx := context.Background()

	paidAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	user, p := f.seedPaidParticipant(t, 1003, model.PlanP30, paidAt)
	expiry := paidAt.AddDate(0, 0, 30)

	// Simulate the expiry-day stop having happened earlier.
	stopAt := expiry.Add(time.Hour)
	f.db.Model(p).Update("left_at", stopAt)

	now := expiry.Add(25 * time.Hour)
	summary, err := f.sweep.Run(ctx, now, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Kicked != 1 {
		t.Fatalf("kicked = %d, want 1, summary %+v", summary.Kicked, summary)
	}

	if len(f.gateway.Removed) != 1 || f.gateway.Removed[0].TelegramID != user.TelegramID {
		t.Errorf("removals = %v, want user %d", f.gateway.Removed, user.TelegramID)
	}
	if got := f.notifier.count(user.ID, "expiry_kick"); got != 1 {
		t.Errorf("kick notices = %d, want 1", got)
	}

	// Re-running does not kick twice.
	again, err := f.sweep.Run(ctx, now.Add(time.Hour), false)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if again.Kicked != 0 || len(f.gateway.Removed) != 1 {
		t.Errorf("kick repeated, summary %+v removals %v", again, f.gateway.Removed)
	}
}

func TestSubscriptionKickStopsMissedExpiry(t *testing.T) {
	f := newSubscriptionFixture(t)
	ctx := context.Background()

	paidAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	user, p := f.seedPaidParticipant(t, 1007, model.PlanP30, paidAt)
	expiry := paidAt.AddDate(0, 0, 30)

	// First run lands past the grace day: the expiry-day branch never
	// ran, the participation is still active.
	now := expiry.Add(48 * time.Hour)
	summary, err := f.sweep.Run(ctx, now, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Kicked != 1 {
		t.Fatalf("kicked = %d, want 1, summary %+v", summary.Kicked, summary)
	}
	if len(f.gateway.Removed) != 1 || f.gateway.Removed[0].TelegramID != user.TelegramID {
		t.Fatalf("removals = %v, want user %d", f.gateway.Removed, user.TelegramID)
	}

	var reloaded model.Participation
	f.db.First(&reloaded, p.ID)
	if reloaded.LeftAt == nil {
		t.Fatal("participation still active after expiry kick")
	}

	again, err := f.sweep.Run(ctx, now.Add(time.Hour), false)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if again.Kicked != 0 || len(f.gateway.Removed) != 1 {
		t.Errorf("kick repeated, summary %+v removals %v", again, f.gateway.Removed)
	}
}

func TestSubscriptionForeverAndTrialExcluded(t *testing.T) {
	f := newSubscriptionFixture(t)
	ctx := context.Background()

	paidAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	forever, _ := f.seedPaidParticipant(t, 1004, model.PlanForever, paidAt)

	trialUser := &model.User{TelegramID: 1005, Timezone: "GMT+03:00"}
	f.db.Create(trialUser)
	trialStart := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	f.db.Create(&model.Participation{
		UserID:         trialUser.ID,
		ChallengeID:    f.challenge.ID,
		WakeMode:       model.WakeModeFlex,
		TrialStartedAt: &trialStart,
	})

	summary, err := f.sweep.Run(ctx, trialStart.AddDate(0, 0, 2), false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if summary.Notified != 0 || summary.Kicked != 0 {
		t.Errorf("forever/trial participants touched, summary %+v", summary)
	}
	if len(f.notifier.notices) != 0 {
		t.Errorf("unexpected notices: %v", f.notifier.notices)
	}
	_ = forever
}

func TestSubscriptionDryRun(t *testing.T) {
	f := newSubscriptionFixture(t)
	ctx := context.Background()

	paidAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	_, p := f.seedPaidParticipant(t, 1006, model.PlanP30, paidAt)
	expiry := paidAt.AddDate(0, 0, 30)

	summary, err := f.sweep.Run(ctx, expiry.Add(time.Hour), true)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if summary.Notified != 1 || !summary.DryRun {
		t.Fatalf("dry run summary %+v, want notified 1", summary)
	}

	if len(f.notifier.notices) != 0 {
		t.Error("dry run must not notify")
	}

	var reloaded model.Participation
	f.db.First(&reloaded, p.ID)
	if reloaded.LeftAt != nil {
		t.Error("dry run must not stop participation")
	}

	var markers int64
	f.db.Model(&model.LedgerEntry{}).Count(&markers)
	if markers != 0 {
		t.Errorf("dry run wrote %d markers, want 0", markers)
	}
}
