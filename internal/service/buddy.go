package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"Podyom/internal/model"
	"Podyom/internal/repository"
	pkgerrors "Podyom/pkg/errors"
	"Podyom/pkg/logger"
	"Podyom/pkg/messenger"
)

// BuddyService manages accountability pairs and the terminal cascade
// kick.
type BuddyService struct {
	db        *gorm.DB
	notifier  Notifier
	messenger messenger.Client
}

func NewBuddyService(db *gorm.DB, notifier Notifier, m messenger.Client) *BuddyService {
	return &BuddyService{db: db, notifier: notifier, messenger: m}
}

// Assign pairs two participations. Either side already holding an
// active pair is a conflict.
func (s *BuddyService) Assign(ctx context.Context, participationAID, participationBID int64) (*model.BuddyPair, error) {
	for _, id := range []int64{participationAID, participationBID} {
		existing, err := repository.GetActiveBuddyPair(ctx, s.db, id)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing pair: %w", err)
		}
		if existing != nil {
			return nil, pkgerrors.BuddyPairConflict
		}
	}

	pair := &model.BuddyPair{
		ParticipationAID: participationAID,
		ParticipationBID: participationBID,
		Status:           model.BuddyPairStatusActive,
	}
	if err := repository.CreateBuddyPair(ctx, s.db, pair); err != nil {
		return nil, fmt.Errorf("failed to create buddy pair: %w", err)
	}

	return pair, nil
}

// KickResult reports the cascade outcome. NotifyErrors carries
// messaging-gateway failures, reported but not retried.
type KickResult struct {
	KickedParticipations []int64
	NotifyErrors         []string
}

// CascadeKick stops a participation and its paired partner together.
// Two phases: compute the full affected set first, then apply both
// state changes before any external call.
func (s *BuddyService) CascadeKick(ctx context.Context, challengeID int64, participation *model.Participation, localDate string, now time.Time) (*KickResult, error) {
	affected := []*model.Participation{participation}

	pair, err := repository.GetActiveBuddyPair(ctx, s.db, participation.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load buddy pair: %w", err)
	}
	if pair != nil {
		partnerID := pair.PartnerOf(participation.ID)
		partner, err := repository.GetParticipationByID(ctx, s.db, partnerID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load partner participation: %w", err)
		}
		if partner != nil && partner.IsActive() {
			affected = append(affected, partner)
		}
	}

	// Phase two: apply the state changes together.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range affected {
			if err := repository.StopParticipation(ctx, tx, p.ID, now); err != nil {
				return fmt.Errorf("failed to stop participation %d: %w", p.ID, err)
			}
		}
		if pair != nil {
			if err := repository.DeactivateBuddyPair(ctx, tx, pair.ID); err != nil {
				return fmt.Errorf("failed to deactivate buddy pair: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	challenge, err := repository.GetChallengeByID(ctx, s.db, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load challenge: %w", err)
	}

	result := &KickResult{}
	for i, p := range affected {
		result.KickedParticipations = append(result.KickedParticipations, p.ID)

		markerKind := model.ReasonKick
		text := textKicked
		if i > 0 {
			markerKind = model.ReasonBuddyKick
			text = textBuddyKicked
		}
		marker := repository.DateReason(markerKind, localDate)
		inserted, err := repository.AppendMarker(ctx, s.db, p.UserID, challengeID, marker, "")
		if err != nil {
			result.NotifyErrors = append(result.NotifyErrors, fmt.Sprintf("marker for user %d: %v", p.UserID, err))
			continue
		}
		if !inserted {
			continue
		}

		user, err := repository.GetUserByID(ctx, s.db, p.UserID)
		if err != nil {
			result.NotifyErrors = append(result.NotifyErrors, fmt.Sprintf("load user %d: %v", p.UserID, err))
			continue
		}

		if err := s.messenger.RemoveFromChannel(ctx, challenge.GroupID, user.TelegramID); err != nil {
			logger.Logger.Warn("Failed to remove user from group",
				zap.Int64("user_id", user.ID),
				zap.Error(err),
			)
			result.NotifyErrors = append(result.NotifyErrors, fmt.Sprintf("remove user %d: %v", p.UserID, err))
		}

		if err := s.notifier.NotifyUser(ctx, user, "kick", text); err != nil {
			result.NotifyErrors = append(result.NotifyErrors, fmt.Sprintf("notify user %d: %v", p.UserID, err))
		}
	}

	return result, nil
}
