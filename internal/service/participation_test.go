package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"Podyom/internal/model"
	"Podyom/internal/testutil"
	pkgerrors "Podyom/pkg/errors"
)

func TestJoinValidatesWakeTime(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := NewParticipationService(db)
	challenge := seedChallenge(t, db)
	user := seedUser(t, db, 7001, "GMT+03:00")
	ctx := context.Background()

	if _, err := svc.Join(ctx, user.ID, challenge.ID, model.WakeModeFixed, "06:30"); !errors.Is(err, pkgerrors.WakeTimeNotAllowed) {
		t.Fatalf("error = %v, want wake_time_not_allowed", err)
	}

	p, err := svc.Join(ctx, user.ID, challenge.ID, model.WakeModeFixed, "07:00")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if p.WakeTimeLocal != "07:00" {
		t.Errorf("wake time = %q, want 07:00", p.WakeTimeLocal)
	}
	if p.WakeUTCMinutes == nil || *p.WakeUTCMinutes != 4*60 {
		t.Errorf("wake utc minutes = %v, want 240 for GMT+03:00", p.WakeUTCMinutes)
	}
}

func TestRejoinClearsLeftAt(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := NewParticipationService(db)
	challenge := seedChallenge(t, db)
	user := seedUser(t, db, 7002, "GMT+03:00")
	ctx := context.Background()

	p, err := svc.Join(ctx, user.ID, challenge.ID, model.WakeModeFixed, "07:00")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}

	left := time.Now().Add(-24 * time.Hour)
	db.Model(p).Update("left_at", left)

	rejoined, err := svc.Join(ctx, user.ID, challenge.ID, model.WakeModeFixed, "08:00")
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if rejoined.LeftAt != nil {
		t.Error("left_at should be cleared on rejoin")
	}
	if rejoined.ID != p.ID {
		t.Errorf("rejoin created a second row: %d != %d", rejoined.ID, p.ID)
	}

	var count int64
	db.Model(&model.Participation{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 1 {
		t.Errorf("participation rows = %d, want 1", count)
	}
}

func TestSetTimezoneRecomputesWakeUTC(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := NewParticipationService(db)
	challenge := seedChallenge(t, db)
	user := seedUser(t, db, 7003, "GMT+03:00")
	ctx := context.Background()

	if _, err := svc.Join(ctx, user.ID, challenge.ID, model.WakeModeFixed, "07:00"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	if err := svc.SetTimezone(ctx, user.ID, "GMT+05:00"); err != nil {
		t.Fatalf("SetTimezone: %v", err)
	}

	var p model.Participation
	db.Where("user_id = ?", user.ID).First(&p)
	if p.WakeUTCMinutes == nil || *p.WakeUTCMinutes != 2*60 {
		t.Errorf("wake utc minutes = %v, want 120 for GMT+05:00", p.WakeUTCMinutes)
	}

	if err := svc.SetTimezone(ctx, user.ID, "GMT+99:00"); !errors.Is(err, pkgerrors.InvalidTimezone) {
		t.Errorf("error = %v, want invalid_timezone", err)
	}
}

func TestLeaveStopsParticipationOnce(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := NewParticipationService(db)
	challenge := seedChallenge(t, db)
	user := seedUser(t, db, 7005, "GMT+03:00")
	ctx := context.Background()

	if err := svc.Leave(ctx, user.ID, challenge.ID, time.Now()); !errors.Is(err, pkgerrors.ParticipationNotFound) {
		t.Fatalf("error = %v, want participation_not_found", err)
	}

	if _, err := svc.Join(ctx, user.ID, challenge.ID, model.WakeModeFlex, ""); err != nil {
		t.Fatalf("Join: %v", err)
	}

	left := time.Date(2026, 8, 21, 10, 0, 0, 0, time.UTC)
	if err := svc.Leave(ctx, user.ID, challenge.ID, left); err != nil {
		t.Fatalf("Leave: %v", err)
	}

	var p model.Participation
	db.Where("user_id = ?", user.ID).First(&p)
	if p.LeftAt == nil {
		t.Fatal("left_at not set")
	}

	// second leave keeps the original timestamp
	if err := svc.Leave(ctx, user.ID, challenge.ID, left.Add(time.Hour)); err != nil {
		t.Fatalf("second Leave: %v", err)
	}
	db.Where("user_id = ?", user.ID).First(&p)
	if !p.LeftAt.Equal(left) {
		t.Errorf("left_at moved to %v, want %v", p.LeftAt, left)
	}
}

func TestStartTrialIsIdempotent(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := NewParticipationService(db)
	challenge := seedChallenge(t, db)
	user := seedUser(t, db, 7004, "GMT+03:00")
	ctx := context.Background()

	if _, err := svc.Join(ctx, user.ID, challenge.ID, model.WakeModeFlex, ""); err != nil {
		t.Fatalf("Join: %v", err)
	}

	first := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	p, err := svc.StartTrial(ctx, user.ID, challenge.ID, first)
	if err != nil {
		t.Fatalf("StartTrial: %v", err)
	}
	if p.TrialStartedAt == nil || !p.TrialStartedAt.Equal(first) {
		t.Fatalf("trial start = %v, want %v", p.TrialStartedAt, first)
	}

	p, err = svc.StartTrial(ctx, user.ID, challenge.ID, first.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("second StartTrial: %v", err)
	}
	if !p.TrialStartedAt.Equal(first) {
		t.Errorf("trial start moved to %v, want original %v", p.TrialStartedAt, first)
	}
}
