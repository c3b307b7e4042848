package service

import (
	"context"
	"errors"
	"testing"

	"Podyom/internal/model"
	"Podyom/internal/testutil"
	pkgerrors "Podyom/pkg/errors"
	"Podyom/pkg/messenger"
)

func TestBuddyAssignConflict(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := NewBuddyService(db, &captureNotifier{}, messenger.NewMock())
	challenge := seedChallenge(t, db)
	ctx := context.Background()

	var parts []*model.Participation
	for i := int64(0); i < 3; i++ {
		user := seedUser(t, db, 8100+i, "GMT+03:00")
		parts = append(parts, seedParticipation(t, db, user.ID, challenge.ID, model.WakeModeFixed, "07:00"))
	}

	if _, err := svc.Assign(ctx, parts[0].ID, parts[1].ID); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if _, err := svc.Assign(ctx, parts[0].ID, parts[2].ID); !errors.Is(err, pkgerrors.BuddyPairConflict) {
		t.Fatalf("error = %v, want buddy_pair_conflict", err)
	}
}

func TestCascadeKickStopsBothPartners(t *testing.T) {
	db := testutil.OpenDB(t)
	notifier := &captureNotifier{}
	gateway := messenger.NewMock()
	svc := NewBuddyService(db, notifier, gateway)
	challenge := seedChallenge(t, db)
	ctx := context.Background()

	userA := seedUser(t, db, 8201, "GMT+03:00")
	userB := seedUser(t, db, 8202, "GMT+03:00")
	partA := seedParticipation(t, db, userA.ID, challenge.ID, model.WakeModeFixed, "07:00")
	partB := seedParticipation(t, db, userB.ID, challenge.ID, model.WakeModeFixed, "07:00")

	if _, err := svc.Assign(ctx, partA.ID, partB.ID); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	now := moscowTime(2026, 8, 23, 7, 40)
	result, err := svc.CascadeKick(ctx, challenge.ID, partA, "2026-08-23", now)
	if err != nil {
		t.Fatalf("CascadeKick: %v", err)
	}

	if len(result.KickedParticipations) != 2 {
		t.Fatalf("kicked = %v, want both participations", result.KickedParticipations)
	}

	for _, id := range []int64{partA.ID, partB.ID} {
		var p model.Participation
		db.First(&p, id)
		if p.LeftAt == nil {
			t.Errorf("participation %d still active after cascade", id)
		}
	}

	var pair model.BuddyPair
	db.First(&pair)
	if pair.Status != model.BuddyPairStatusInactive {
		t.Errorf("pair status = %s, want inactive", pair.Status)
	}

	if len(gateway.Removed) != 2 {
		t.Errorf("group removals = %d, want 2", len(gateway.Removed))
	}
	if notifier.count(userA.ID, "kick") != 1 || notifier.count(userB.ID, "kick") != 1 {
		t.Error("each partner should get exactly one kick notice")
	}
}

func TestCascadeKickUnpaired(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := NewBuddyService(db, &captureNotifier{}, messenger.NewMock())
	challenge := seedChallenge(t, db)
	ctx := context.Background()

	user := seedUser(t, db, 8301, "GMT+03:00")
	part := seedParticipation(t, db, user.ID, challenge.ID, model.WakeModeFixed, "07:00")

	result, err := svc.CascadeKick(ctx, challenge.ID, part, "2026-08-23", moscowTime(2026, 8, 23, 7, 40))
	if err != nil {
		t.Fatalf("CascadeKick: %v", err)
	}
	if len(result.KickedParticipations) != 1 {
		t.Errorf("kicked = %v, want only the one participation", result.KickedParticipations)
	}
}
