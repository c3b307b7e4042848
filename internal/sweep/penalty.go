package sweep

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"Podyom/internal/clock"
	"Podyom/internal/model"
	"Podyom/internal/repository"
	"Podyom/internal/service"
	pkgerrors "Podyom/pkg/errors"
	"Podyom/pkg/logger"
)

// MaxEscalationLevel caps the cumulative miss count. Level 4 is the
// terminal kick.
const MaxEscalationLevel = 4

// penaltyTerms maps levels 1-3 to the squat/fine choice.
var penaltyTerms = map[int]struct {
	Squats int
	Fine   int
}{
	1: {Squats: 50, Fine: 150},
	2: {Squats: 100, Fine: 300},
	3: {Squats: 200, Fine: 500},
}

// PenaltySweep turns silent mornings into graduated consequences.
// Every mutating effect sits behind a ledger marker, so overlapping or
// repeated runs are no-ops past the first.
type PenaltySweep struct {
	db             *gorm.DB
	notifier       service.Notifier
	buddy          *service.BuddyService
	sendDelay      time.Duration
	errorSampleMax int
}

func NewPenaltySweep(db *gorm.DB, notifier service.Notifier, buddy *service.BuddyService, sendDelay time.Duration, errorSampleMax int) *PenaltySweep {
	if errorSampleMax <= 0 {
		errorSampleMax = 10
	}
	return &PenaltySweep{
		db:             db,
		notifier:       notifier,
		buddy:          buddy,
		sendDelay:      sendDelay,
		errorSampleMax: errorSampleMax,
	}
}

// Run evaluates every active fixed-wake participation past its grace
// boundary. Per-item failures are collected, never raised.
func (s *PenaltySweep) Run(ctx context.Context, now time.Time, dryRun bool) (*Summary, error) {
	summary := &Summary{DryRun: dryRun}

	challenge, err := repository.GetActiveChallenge(ctx, s.db)
	if err != nil {
		return nil, pkgerrors.NoActiveChallenge
	}
	if !challenge.Enabled {
		return nil, pkgerrors.ChallengeDisabled
	}

	participations, err := repository.ListActiveFixedParticipations(ctx, s.db, challenge.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participations: %w", err)
	}

	for i := range participations {
		p := &participations[i]
		sent, err := s.evaluateOne(ctx, challenge, p, now, dryRun, summary)
		if err != nil {
			summary.addError(s.errorSampleMax, "participation %d: %v", p.ID, err)
			continue
		}
		if sent && s.sendDelay > 0 {
			time.Sleep(s.sendDelay)
		}
	}

	logger.Logger.Info("Penalty sweep finished",
		zap.Int("evaluated", summary.Evaluated),
		zap.Int("notified", summary.Notified),
		zap.Int("kicked", summary.Kicked),
		zap.Int("errors", summary.ErrorsTotal),
		zap.Bool("dry_run", dryRun),
	)

	return summary, nil
}

// evaluateOne returns whether a notification was sent, for pacing.
func (s *PenaltySweep) evaluateOne(ctx context.Context, challenge *model.Challenge, p *model.Participation, now time.Time, dryRun bool, summary *Summary) (bool, error) {
	if p.WakeTimeLocal == "" {
		summary.Skipped++
		return false, nil
	}

	user, err := repository.GetUserByID(ctx, s.db, p.UserID)
	if err != nil {
		return false, fmt.Errorf("user %d missing: %w", p.UserID, err)
	}

	wakeMinutes, err := clock.ParseHHMM(p.WakeTimeLocal)
	if err != nil {
		return false, fmt.Errorf("bad wake time %q: %w", p.WakeTimeLocal, err)
	}

	_, _, _, hour, minute, err := clock.LocalParts(now, user.Timezone)
	if err != nil {
		return false, fmt.Errorf("bad timezone %q: %w", user.Timezone, err)
	}

	// Not yet past wake+grace in the user's own morning.
	if clock.MinutesOfDay(hour, minute) < wakeMinutes+clock.GraceAfterWakeMinutes {
		summary.Skipped++
		return false, nil
	}

	_, _, localDate, err := clock.UTCRangeForLocalDay(now, user.Timezone)
	if err != nil {
		return false, err
	}

	noticeMarker := repository.DateReason(model.ReasonPenaltyNotice, localDate)
	already, err := repository.HasMarker(ctx, s.db, p.UserID, challenge.ID, noticeMarker)
	if err != nil {
		return false, err
	}
	if already {
		summary.Skipped++
		return false, nil
	}

	summary.Evaluated++

	tapped, err := repository.HasAcceptedTapForDate(ctx, s.db, p.UserID, challenge.ID, localDate)
	if err != nil {
		return false, err
	}
	if tapped {
		// Mark so tomorrow's runs stop re-checking today.
		if !dryRun {
			if _, err := repository.AppendMarker(ctx, s.db, p.UserID, challenge.ID, noticeMarker, "tapped"); err != nil {
				return false, err
			}
		}
		return false, nil
	}

	level, err := s.recordMissAndLevel(ctx, challenge.ID, p.UserID, localDate, dryRun)
	if err != nil {
		return false, err
	}

	if level < MaxEscalationLevel {
		terms := penaltyTerms[level]
		if dryRun {
			summary.Notified++
			return false, nil
		}

		if err := s.notifier.NotifyUser(ctx, user, "penalty", textPenaltyChoice(level, terms.Squats, terms.Fine)); err != nil {
			return false, fmt.Errorf("notify user %d: %w", p.UserID, err)
		}
		if _, err := repository.AppendMarker(ctx, s.db, p.UserID, challenge.ID, noticeMarker, fmt.Sprintf("level %d", level)); err != nil {
			return false, err
		}
		summary.Notified++
		return true, nil
	}

	// Terminal level: the pair goes down together.
	if dryRun {
		summary.Kicked++
		return false, nil
	}

	result, err := s.buddy.CascadeKick(ctx, challenge.ID, p, localDate, now)
	if err != nil {
		return false, fmt.Errorf("cascade kick for user %d: %w", p.UserID, err)
	}
	for _, msg := range result.NotifyErrors {
		summary.addError(s.errorSampleMax, "%s", msg)
	}
	summary.Kicked += len(result.KickedParticipations)

	if _, err := repository.AppendMarker(ctx, s.db, p.UserID, challenge.ID, noticeMarker, "kicked"); err != nil {
		return false, err
	}
	return true, nil
}

// recordMissAndLevel appends today's miss marker when absent and
// derives the escalation level from the cumulative count.
func (s *PenaltySweep) recordMissAndLevel(ctx context.Context, challengeID, userID int64, localDate string, dryRun bool) (int, error) {
	missMarker := repository.DateReason(model.ReasonMiss, localDate)

	count, err := repository.CountMarkersByKind(ctx, s.db, userID, challengeID, model.ReasonMiss)
	if err != nil {
		return 0, err
	}

	if dryRun {
		recorded, err := repository.HasMarker(ctx, s.db, userID, challengeID, missMarker)
		if err != nil {
			return 0, err
		}
		if !recorded {
			count++
		}
	} else {
		inserted, err := repository.AppendMarker(ctx, s.db, userID, challengeID, missMarker, "")
		if err != nil {
			return 0, err
		}
		if inserted {
			count++
		}
	}

	if count < 1 {
		count = 1
	}
	if count > MaxEscalationLevel {
		count = MaxEscalationLevel
	}
	return count, nil
}

// PenaltyChoice records the user's squats-or-fine pick. A fine pick
// also opens a pay intent, reconciled later against payments.
func (s *PenaltySweep) PenaltyChoice(ctx context.Context, userID, challengeID int64, localDate, choice string) error {
	if choice != "squats" && choice != "fine" {
		return fmt.Errorf("unknown penalty choice %q", choice)
	}

	marker := repository.DateReason(model.ReasonPenaltyChoice, localDate) + ":" + choice
	if _, err := repository.AppendMarker(ctx, s.db, userID, challengeID, marker, ""); err != nil {
		return err
	}

	if choice == "fine" {
		intent := repository.DateReason(model.ReasonFineIntent, localDate)
		if _, err := repository.AppendMarker(ctx, s.db, userID, challengeID, intent, ""); err != nil {
			return err
		}
	}

	return nil
}

// ReconcileFineIntents confirms fines once a payment newer than the
// intent shows up. One confirmation per intent.
func (s *PenaltySweep) ReconcileFineIntents(ctx context.Context, challengeID int64, now time.Time) (int, error) {
	intents, err := repository.ListMarkersByKind(ctx, s.db, challengeID, model.ReasonFineIntent)
	if err != nil {
		return 0, err
	}

	confirmed := 0
	for i := range intents {
		intent := &intents[i]
		localDate := intent.Reason[len(model.ReasonFineIntent)+1:]

		paidMarker := repository.DateReason(model.ReasonFinePaid, localDate)
		done, err := repository.HasMarker(ctx, s.db, intent.UserID, challengeID, paidMarker)
		if err != nil || done {
			continue
		}

		payments, err := repository.ListPaidPayments(ctx, s.db, intent.UserID)
		if err != nil {
			continue
		}
		var paid bool
		for j := range payments {
			if payments[j].PaidAt != nil && payments[j].PaidAt.After(intent.CreatedAt) {
				paid = true
				break
			}
		}
		if !paid {
			continue
		}

		inserted, err := repository.AppendMarker(ctx, s.db, intent.UserID, challengeID, paidMarker, "")
		if err != nil || !inserted {
			continue
		}

		if user, err := repository.GetUserByID(ctx, s.db, intent.UserID); err == nil {
			if err := s.notifier.NotifyUser(ctx, user, "fine_paid", textFinePaid); err != nil {
				logger.Logger.Warn("Failed to send fine confirmation",
					zap.Int64("user_id", intent.UserID),
					zap.Error(err),
				)
			}
		}
		confirmed++
	}

	return confirmed, nil
}
