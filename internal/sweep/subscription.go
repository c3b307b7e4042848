package sweep

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"Podyom/internal/model"
	"Podyom/internal/repository"
	"Podyom/internal/service"
	pkgerrors "Podyom/pkg/errors"
	"Podyom/pkg/logger"
	"Podyom/pkg/messenger"
)

// SubscriptionSweep walks every participation, including left ones,
// because a lapsed user may still owe a final group removal.
type SubscriptionSweep struct {
	db             *gorm.DB
	access         *service.AccessService
	notifier       service.Notifier
	messenger      messenger.Client
	sendDelay      time.Duration
	errorSampleMax int
}

func NewSubscriptionSweep(db *gorm.DB, access *service.AccessService, notifier service.Notifier, m messenger.Client, sendDelay time.Duration, errorSampleMax int) *SubscriptionSweep {
	if errorSampleMax <= 0 {
		errorSampleMax = 10
	}
	return &SubscriptionSweep{
		db:             db,
		access:         access,
		notifier:       notifier,
		messenger:      m,
		sendDelay:      sendDelay,
		errorSampleMax: errorSampleMax,
	}
}

func (s *SubscriptionSweep) Run(ctx context.Context, now time.Time, dryRun bool) (*Summary, error) {
	summary := &Summary{DryRun: dryRun}

	challenge, err := repository.GetActiveChallenge(ctx, s.db)
	if err != nil {
		return nil, pkgerrors.NoActiveChallenge
	}

	participations, err := repository.ListParticipations(ctx, s.db, challenge.ID)
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

	logger.Logger.Info("Subscription sweep finished",
		zap.Int("evaluated", summary.Evaluated),
		zap.Int("notified", summary.Notified),
		zap.Int("kicked", summary.Kicked),
		zap.Int("errors", summary.ErrorsTotal),
		zap.Bool("dry_run", dryRun),
	)

	return summary, nil
}

func (s *SubscriptionSweep) evaluateOne(ctx context.Context, challenge *model.Challenge, p *model.Participation, now time.Time, dryRun bool, summary *Summary) (bool, error) {
	user, err := repository.GetUserByID(ctx, s.db, p.UserID)
	if err != nil {
		return false, fmt.Errorf("user %d missing: %w", p.UserID, err)
	}

	info, err := s.access.Resolve(ctx, p.UserID, p, now)
	if err != nil {
		return false, err
	}

	// Forever payments and active trials never expire here.
	if info.Forever || info.Class == service.AccessTrial || info.PaidUntil == nil {
		summary.Skipped++
		return false, nil
	}

	summary.Evaluated++

	expiry := *info.PaidUntil
	dateKey := expiry.UTC().Format("2006-01-02")

	switch {
	case !now.Before(expiry.Add(24 * time.Hour)):
		// Past the final grace day: remove from the group.
		marker := repository.DateReason(model.ReasonExpiryKick, dateKey)
		return s.fireOnce(ctx, challenge, user, p, marker, dryRun, summary, func() { summary.Kicked++ }, func() error {
			// The expiry-day branch may never have run if the sweep was
			// down across the whole [T, T+1d) window.
			if p.IsActive() {
				if err := repository.StopParticipation(ctx, s.db, p.ID, now); err != nil {
					return err
				}
			}
			if err := s.messenger.RemoveFromChannel(ctx, challenge.GroupID, user.TelegramID); err != nil {
				return fmt.Errorf("remove user %d: %w", p.UserID, err)
			}
			summary.Kicked++
			return s.notifier.NotifyUser(ctx, user, "expiry_kick", textExpiryKick)
		})

	case !now.Before(expiry):
		// Expiry day: prompt and stop counting them as a participant.
		marker := repository.DateReason(model.ReasonExpiryNotice, dateKey)
		return s.fireOnce(ctx, challenge, user, p, marker, dryRun, summary, func() { summary.Notified++ }, func() error {
			if p.IsActive() {
				if err := repository.StopParticipation(ctx, s.db, p.ID, now); err != nil {
					return err
				}
			}
			summary.Notified++
			return s.notifier.NotifyUser(ctx, user, "expiry", textExpiryPrompt)
		})

	case !now.Before(expiry.Add(-48 * time.Hour)):
		marker := repository.DateReason(model.ReasonRenewPrompt, dateKey)
		return s.fireOnce(ctx, challenge, user, p, marker, dryRun, summary, func() { summary.Notified++ }, func() error {
			days := int(expiry.Sub(now).Hours()/24) + 1
			summary.Notified++
			return s.notifier.NotifyUser(ctx, user, "renew", textRenewReminder(days))
		})
	}

	summary.Skipped++
	return false, nil
}

// fireOnce runs the effect behind its once-only marker. In dry-run
// mode only the intended-effect counter fires.
func (s *SubscriptionSweep) fireOnce(ctx context.Context, challenge *model.Challenge, user *model.User, p *model.Participation, marker string, dryRun bool, summary *Summary, dryCount func(), effect func() error) (bool, error) {
	done, err := repository.HasMarker(ctx, s.db, p.UserID, challenge.ID, marker)
	if err != nil {
		return false, err
	}
	if done {
		summary.Skipped++
		return false, nil
	}

	if dryRun {
		dryCount()
		return false, nil
	}

	inserted, err := repository.AppendMarker(ctx, s.db, p.UserID, challenge.ID, marker, "")
	if err != nil {
		return false, err
	}
	if !inserted {
		summary.Skipped++
		return false, nil
	}

	if err := effect(); err != nil {
		logger.Logger.Warn("Subscription sweep effect failed",
			zap.Int64("user_id", user.ID),
			zap.String("marker", marker),
			zap.Error(err),
		)
		return true, err
	}

	return true, nil
}
