package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"Podyom/internal/model"
	"Podyom/internal/repository"
	"Podyom/pkg/logger"
)

type AccessClass string

const (
	AccessLead    AccessClass = "lead"
	AccessTrial   AccessClass = "trial"
	AccessPaid    AccessClass = "paid"
	AccessExpired AccessClass = "expired"
)

const TrialDays = 7

// AccessInfo is the derived access fact for a user. Never stored as a
// row; recomputed from payments and the trial start.
type AccessInfo struct {
	Class      AccessClass `json:"class"`
	Forever    bool        `json:"forever"`
	PaidUntil  *time.Time  `json:"paid_until,omitempty"`
	TrialUntil *time.Time  `json:"trial_until,omitempty"`
}

// AccessService computes access classes and drives the one-shot
// lifecycle notices.
type AccessService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewAccessService(db *gorm.DB, notifier Notifier) *AccessService {
	return &AccessService{db: db, notifier: notifier}
}

// Resolve classifies a user at the given instant. The latest expiry
// across all paid payments wins; forever short-circuits.
func (s *AccessService) Resolve(ctx context.Context, userID int64, participation *model.Participation, now time.Time) (*AccessInfo, error) {
	payments, err := repository.ListPaidPayments(ctx, s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}

	info := &AccessInfo{}

	for i := range payments {
		p := &payments[i]
		days, forever := p.AccessDays()
		if forever {
			info.Forever = true
			break
		}
		if days == 0 || p.PaidAt == nil {
			continue
		}
		until := p.PaidAt.AddDate(0, 0, days)
		if info.PaidUntil == nil || until.After(*info.PaidUntil) {
			u := until
			info.PaidUntil = &u
		}
	}

	if participation != nil && participation.TrialStartedAt != nil {
		u := participation.TrialStartedAt.AddDate(0, 0, TrialDays)
		info.TrialUntil = &u
	}

	switch {
	case info.Forever, info.PaidUntil != nil && now.Before(*info.PaidUntil):
		info.Class = AccessPaid
	case info.TrialUntil != nil && now.Before(*info.TrialUntil):
		info.Class = AccessTrial
	case len(payments) > 0:
		info.Class = AccessExpired
	default:
		info.Class = AccessLead
	}

	return info, nil
}

// MaybeSendLifecycleNotices fires the proactive one-shot messages.
// Each is gated by its own ledger marker, so calling this on every
// profile fetch is safe.
func (s *AccessService) MaybeSendLifecycleNotices(ctx context.Context, user *model.User, challengeID int64, participation *model.Participation, info *AccessInfo, now time.Time) {
	switch info.Class {
	case AccessLead:
		// Trial offer after 2 days of silence.
		if user.LastSeenAt != nil && now.Sub(*user.LastSeenAt) >= 48*time.Hour {
			s.sendOnce(ctx, user, challengeID, model.ReasonTrialOffer, "trial_offer", textTrialOffer)
		}
	case AccessPaid:
		s.sendOnce(ctx, user, challengeID, model.ReasonChatInvite, "chat_invite", textChatInvite)
	case AccessExpired:
		if info.PaidUntil != nil {
			reason := repository.DateReason(model.ReasonRenewPrompt, info.PaidUntil.UTC().Format("2006-01-02"))
			s.sendOnce(ctx, user, challengeID, reason, "renew_prompt", textRenewPrompt)
		}
	}
}

// NotifyRefund sends the one-time refund notice.
func (s *AccessService) NotifyRefund(ctx context.Context, user *model.User, challengeID int64) {
	s.sendOnce(ctx, user, challengeID, model.ReasonRefundNotice, "refund", textRefundNotice)
}

func (s *AccessService) sendOnce(ctx context.Context, user *model.User, challengeID int64, markerReason, category, text string) {
	inserted, err := repository.AppendMarker(ctx, s.db, user.ID, challengeID, markerReason, "")
	if err != nil {
		logger.Logger.Error("Failed to append lifecycle marker",
			zap.String("reason", markerReason),
			zap.Error(err),
		)
		return
	}
	if !inserted {
		return
	}

	if err := s.notifier.NotifyUser(ctx, user, category, text); err != nil {
		logger.Logger.Warn("Failed to send lifecycle notice",
			zap.Int64("user_id", user.ID),
			zap.String("category", category),
			zap.Error(err),
		)
	}
}
