package service

import (
	"context"
	"testing"
	"time"

	"Podyom/internal/model"
	"Podyom/internal/testutil"
)

func paidPayment(userID int64, plan string, amount int, paidAt time.Time) *model.Payment {
	return &model.Payment{
		UserID:   userID,
		PlanCode: plan,
		Amount:   amount,
		Status:   model.PaymentStatusPaid,
		PaidAt:   &paidAt,
	}
}

func TestAccessClassification(t *testing.T) {
	day0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		payments []*model.Payment
		trialAt  *time.Time
		now      time.Time
		want     AccessClass
	}{
		{
			name:     "forever payment is always paid",
			payments: []*model.Payment{paidPayment(0, model.PlanForever, 9900, day0)},
			now:      day0.AddDate(5, 0, 0),
			want:     AccessPaid,
		},
		{
			name:     "30-day plan paid through day 29",
			payments: []*model.Payment{paidPayment(0, model.PlanP30, 490, day0)},
			now:      day0.AddDate(0, 0, 29),
			want:     AccessPaid,
		},
		{
			name:     "30-day plan expired from day 30",
			payments: []*model.Payment{paidPayment(0, model.PlanP30, 490, day0)},
			now:      day0.AddDate(0, 0, 30),
			want:     AccessExpired,
		},
		{
			name: "latest expiry wins across payments",
			payments: []*model.Payment{
				paidPayment(0, model.PlanP30, 490, day0),
				paidPayment(0, model.PlanP90, 1290, day0.AddDate(0, 0, 10)),
			},
			now:  day0.AddDate(0, 0, 60),
			want: AccessPaid,
		},
		{
			name:     "legacy amount maps to days",
			payments: []*model.Payment{paidPayment(0, "", 1290, day0)},
			now:      day0.AddDate(0, 0, 89),
			want:     AccessPaid,
		},
		{
			name:    "trial through day 6",
			trialAt: &day0,
			now:     day0.AddDate(0, 0, 6),
			want:    AccessTrial,
		},
		{
			name:    "lead after trial lapses",
			trialAt: &day0,
			now:     day0.AddDate(0, 0, 7),
			want:    AccessLead,
		},
		{
			name: "lead with no history",
			now:  day0,
			want: AccessLead,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.OpenDB(t)
			svc := NewAccessService(db, &captureNotifier{})

			user := seedUser(t, db, 9000, "GMT+03:00")
			for _, p := range tt.payments {
				p.UserID = user.ID
				if err := db.Create(p).Error; err != nil {
					t.Fatalf("failed to seed payment: %v", err)
				}
			}

			participation := &model.Participation{UserID: user.ID, ChallengeID: 1, WakeMode: model.WakeModeFixed, TrialStartedAt: tt.trialAt}

			info, err := svc.Resolve(context.Background(), user.ID, participation, tt.now)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if info.Class != tt.want {
				t.Errorf("class = %s, want %s", info.Class, tt.want)
			}
		})
	}
}

func TestTrialOfferAfterInactivity(t *testing.T) {
	db := testutil.OpenDB(t)
	notifier := &captureNotifier{}
	svc := NewAccessService(db, notifier)
	ctx := context.Background()

	user := seedUser(t, db, 9100, "GMT+03:00")
	lastSeen := time.Date(2026, 8, 20, 7, 0, 0, 0, time.UTC)
	user.LastSeenAt = &lastSeen

	now := lastSeen.Add(49 * time.Hour)
	info := &AccessInfo{Class: AccessLead}

	svc.MaybeSendLifecycleNotices(ctx, user, 1, nil, info, now)
	svc.MaybeSendLifecycleNotices(ctx, user, 1, nil, info, now.Add(time.Hour))

	if got := notifier.count(user.ID, "trial_offer"); got != 1 {
		t.Errorf("trial offers = %d, want exactly 1", got)
	}
}

func TestChatInviteOncePerPaidTransition(t *testing.T) {
	db := testutil.OpenDB(t)
	notifier := &captureNotifier{}
	svc := NewAccessService(db, notifier)
	ctx := context.Background()

	user := seedUser(t, db, 9200, "GMT+03:00")
	info := &AccessInfo{Class: AccessPaid}

	for i := 0; i < 3; i++ {
		svc.MaybeSendLifecycleNotices(ctx, user, 1, nil, info, time.Now())
	}

	if got := notifier.count(user.ID, "chat_invite"); got != 1 {
		t.Errorf("chat invites = %d, want exactly 1", got)
	}
}
