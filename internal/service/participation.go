package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"Podyom/internal/clock"
	"Podyom/internal/model"
	"Podyom/internal/repository"
	pkgerrors "Podyom/pkg/errors"
)

// ParticipationService manages joins, wake-time and timezone changes.
type ParticipationService struct {
	db *gorm.DB
}

func NewParticipationService(db *gorm.DB) *ParticipationService {
	return &ParticipationService{db: db}
}

// Join activates a participation. Re-joining an existing row clears
// left_at; the (user, challenge) pair stays unique.
func (s *ParticipationService) Join(ctx context.Context, userID, challengeID int64, mode model.WakeMode, wakeLocal string) (*model.Participation, error) {
	if mode != model.WakeModeFixed && mode != model.WakeModeFlex {
		return nil, pkgerrors.InvalidWakeMode
	}

	user, err := repository.GetUserByID(ctx, s.db, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.UserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	participation, err := repository.GetParticipation(ctx, s.db, userID, challengeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		participation = &model.Participation{
			UserID:      userID,
			ChallengeID: challengeID,
			WakeMode:    mode,
		}
		if err := repository.CreateParticipation(ctx, s.db, participation); err != nil {
			return nil, fmt.Errorf("failed to create participation: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to load participation: %w", err)
	}

	participation.WakeMode = mode
	participation.LeftAt = nil

	if mode == model.WakeModeFixed && wakeLocal != "" {
		if err := s.applyWakeTime(participation, user.Timezone, wakeLocal); err != nil {
			return nil, err
		}
	}
	if mode == model.WakeModeFlex {
		participation.WakeTimeLocal = ""
		participation.WakeUTCMinutes = nil
	}

	if err := repository.SaveParticipation(ctx, s.db, participation); err != nil {
		return nil, fmt.Errorf("failed to save participation: %w", err)
	}

	return participation, nil
}

// SetWakeTime changes the committed wake time, allowed any time while
// active.
func (s *ParticipationService) SetWakeTime(ctx context.Context, userID, challengeID int64, wakeLocal string) (*model.Participation, error) {
	user, err := repository.GetUserByID(ctx, s.db, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.UserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	participation, err := repository.GetParticipation(ctx, s.db, userID, challengeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.ParticipationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load participation: %w", err)
	}
	if !participation.IsActive() {
		return nil, pkgerrors.NotJoined
	}

	participation.WakeMode = model.WakeModeFixed
	if err := s.applyWakeTime(participation, user.Timezone, wakeLocal); err != nil {
		return nil, err
	}

	if err := repository.SaveParticipation(ctx, s.db, participation); err != nil {
		return nil, fmt.Errorf("failed to save participation: %w", err)
	}

	return participation, nil
}

// SetTimezone updates the user timezone and recomputes the derived
// UTC wake minute for their latest fixed participation.
func (s *ParticipationService) SetTimezone(ctx context.Context, userID int64, tz string) error {
	if _, err := clock.Location(tz); err != nil {
		return pkgerrors.InvalidTimezone
	}

	if err := repository.UpdateUserTimezone(ctx, s.db, userID, tz); err != nil {
		return fmt.Errorf("failed to update timezone: %w", err)
	}

	participation, err := repository.GetAnyParticipation(ctx, s.db, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load participation: %w", err)
	}

	if participation.WakeMode == model.WakeModeFixed && participation.WakeTimeLocal != "" {
		if err := s.applyWakeTime(participation, tz, participation.WakeTimeLocal); err != nil {
			return err
		}
		if err := repository.SaveParticipation(ctx, s.db, participation); err != nil {
			return fmt.Errorf("failed to save participation: %w", err)
		}
	}

	return nil
}

// Leave stops an active participation. Leaving twice is a no-op.
func (s *ParticipationService) Leave(ctx context.Context, userID, challengeID int64, now time.Time) error {
	participation, err := repository.GetParticipation(ctx, s.db, userID, challengeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.ParticipationNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load participation: %w", err)
	}

	if !participation.IsActive() {
		return nil
	}

	if err := repository.StopParticipation(ctx, s.db, participation.ID, now); err != nil {
		return fmt.Errorf("failed to stop participation: %w", err)
	}
	return nil
}

// StartTrial stamps the trial start once; later calls keep the
// original date.
func (s *ParticipationService) StartTrial(ctx context.Context, userID, challengeID int64, now time.Time) (*model.Participation, error) {
	participation, err := repository.GetParticipation(ctx, s.db, userID, challengeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.ParticipationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load participation: %w", err)
	}

	if participation.TrialStartedAt == nil {
		participation.TrialStartedAt = &now
		if err := repository.SaveParticipation(ctx, s.db, participation); err != nil {
			return nil, fmt.Errorf("failed to save participation: %w", err)
		}
	}

	return participation, nil
}

func (s *ParticipationService) applyWakeTime(p *model.Participation, tz, wakeLocal string) error {
	if !model.IsAllowedWakeTime(wakeLocal) {
		return pkgerrors.WakeTimeNotAllowed
	}

	wakeMinutes, err := clock.ParseHHMM(wakeLocal)
	if err != nil {
		return pkgerrors.WakeTimeNotAllowed
	}

	offset, err := clock.OffsetMinutes(time.Now(), tz)
	if err != nil {
		return pkgerrors.InvalidTimezone
	}

	utcMinutes := clock.WakeUTCMinutes(wakeMinutes, offset)
	p.WakeTimeLocal = wakeLocal
	p.WakeUTCMinutes = &utcMinutes
	return nil
}
