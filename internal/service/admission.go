package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"Podyom/internal/anticheat"
	"Podyom/internal/cache"
	"Podyom/internal/clock"
	"Podyom/internal/model"
	"Podyom/internal/repository"
	"Podyom/pkg/curator"
	pkgerrors "Podyom/pkg/errors"
	"Podyom/pkg/logger"
)

type VerdictStatus string

const (
	VerdictAccepted         VerdictStatus = "accepted"
	VerdictRejected         VerdictStatus = "rejected"
	VerdictPendingAntiCheat VerdictStatus = "pending_anticheat"
)

// Verdict is the admission decision returned to the calling channel.
type Verdict struct {
	Status    VerdictStatus `json:"status"`
	Reason    string        `json:"reason,omitempty"`
	Question  string        `json:"question,omitempty"`
	Reply     string        `json:"reply,omitempty"`
	Message   string        `json:"message,omitempty"`
	CheckInID int64         `json:"check_in_id,omitempty"`
}

// GroupTapEvent is an inbound "+" message in the group channel.
type GroupTapEvent struct {
	TelegramID int64
	Username   string
	FirstName  string
	At         time.Time
}

// DirectMessageEvent is an inbound voice or text DM.
type DirectMessageEvent struct {
	TelegramID int64
	Username   string
	FirstName  string
	Source     model.CheckInSource
	Text       string
	At         time.Time
}

// AnswerOutcome summarizes one anti-cheat submission.
type AnswerOutcome struct {
	Status       model.AntiCheatStatus `json:"status"`
	AttemptsLeft int                   `json:"attempts_left,omitempty"`
	Message      string                `json:"message"`
}

// AdmissionService decides, for every inbound check-in event, whether
// it counts.
type AdmissionService struct {
	db        *gorm.DB
	dedup     cache.Dedup
	notifier  Notifier
	curator   curator.Client
	defaultTZ string
}

func NewAdmissionService(db *gorm.DB, dedup cache.Dedup, notifier Notifier, cur curator.Client, defaultTZ string) *AdmissionService {
	return &AdmissionService{
		db:        db,
		dedup:     dedup,
		notifier:  notifier,
		curator:   cur,
		defaultTZ: defaultTZ,
	}
}

// HandleGroupTap evaluates a "+" message. A first tap both registers
// the user and creates a bare participation, so the reject path can
// tell the newcomer what is still missing.
func (s *AdmissionService) HandleGroupTap(ctx context.Context, ev GroupTapEvent) (*Verdict, error) {
	challenge, err := s.activeChallenge(ctx)
	if err != nil {
		return nil, err
	}

	user, created, err := repository.EnsureUser(ctx, s.db, ev.TelegramID, ev.Username, ev.FirstName, s.defaultTZ)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}
	if created {
		logger.Logger.Info("Registered user on first tap",
			zap.Int64("telegram_id", ev.TelegramID),
		)
	}
	if err := repository.TouchLastSeen(ctx, s.db, user.ID, ev.At); err != nil {
		logger.Logger.Warn("Failed to update last_seen_at", zap.Error(err))
	}

	participation, err := repository.GetParticipation(ctx, s.db, user.ID, challenge.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		participation = &model.Participation{
			UserID:      user.ID,
			ChallengeID: challenge.ID,
			WakeMode:    model.WakeModeFixed,
		}
		if err := repository.CreateParticipation(ctx, s.db, participation); err != nil {
			return nil, fmt.Errorf("failed to create participation: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to load participation: %w", err)
	}

	_, _, localDate, err := clock.UTCRangeForLocalDay(ev.At, user.Timezone)
	if err != nil {
		return nil, pkgerrors.InvalidTimezone
	}

	reason := s.evaluateTap(participation, user.Timezone, ev.At)

	checkIn := &model.CheckIn{
		UserID:      user.ID,
		ChallengeID: challenge.ID,
		Source:      model.CheckInSourceGroupTap,
		LocalDate:   localDate,
		OccurredAt:  ev.At,
	}
	if reason == "" {
		checkIn.Status = model.CheckInStatusApproved
	} else {
		checkIn.Status = model.CheckInStatusRejected
		checkIn.RejectReason = reason
	}
	if err := repository.CreateCheckIn(ctx, s.db, checkIn); err != nil {
		return nil, fmt.Errorf("failed to persist check-in: %w", err)
	}

	if reason == "" {
		return &Verdict{Status: VerdictAccepted, CheckInID: checkIn.ID}, nil
	}

	s.sendTapRejectNotice(ctx, user, challenge.ID, localDate, reason)

	return &Verdict{Status: VerdictRejected, Reason: reason, CheckInID: checkIn.ID}, nil
}

// evaluateTap returns a reject reason or "" for accepted.
func (s *AdmissionService) evaluateTap(p *model.Participation, tz string, at time.Time) string {
	if !p.IsActive() {
		return pkgerrors.NotJoined.Code
	}

	if p.WakeMode == model.WakeModeFlex {
		return ""
	}

	if p.WakeTimeLocal == "" {
		return pkgerrors.MissingWakeTime.Code
	}

	wakeMinutes, err := clock.ParseHHMM(p.WakeTimeLocal)
	if err != nil {
		return pkgerrors.MissingWakeTime.Code
	}

	_, _, _, hour, minute, err := clock.LocalParts(at, tz)
	if err != nil {
		return pkgerrors.OutsideWindow.Code
	}

	if !clock.WakeWindowContains(clock.MinutesOfDay(hour, minute), wakeMinutes) {
		return pkgerrors.OutsideWindow.Code
	}

	return ""
}

// sendTapRejectNotice sends the one-time per-local-day rejection DM.
// The first rejection of the day wins; later reasons are suppressed
// until the next local day.
func (s *AdmissionService) sendTapRejectNotice(ctx context.Context, user *model.User, challengeID int64, localDate, reason string) {
	cacheKey := fmt.Sprintf("tap_reject:%d:%s", user.ID, localDate)
	if ok, err := s.dedup.TryMark(ctx, cacheKey, 48*time.Hour); err == nil && !ok {
		return
	}

	marker := repository.DateReason(model.ReasonTapRejectNotice, localDate)
	inserted, err := repository.AppendMarker(ctx, s.db, user.ID, challengeID, marker, reason)
	if err != nil {
		logger.Logger.Error("Failed to append tap reject marker", zap.Error(err))
		return
	}
	if !inserted {
		return
	}

	if err := s.notifier.NotifyUser(ctx, user, "tap_reject", textTapRejected(reason)); err != nil {
		logger.Logger.Warn("Failed to send tap reject notice",
			zap.Int64("user_id", user.ID),
			zap.Error(err),
		)
	}
}

// HandleDirectMessage multiplexes an inbound DM: text answering an
// open anti-cheat challenge is a submission, anything else is a
// report.
func (s *AdmissionService) HandleDirectMessage(ctx context.Context, ev DirectMessageEvent) (*Verdict, *AnswerOutcome, error) {
	if ev.Source == model.CheckInSourceText {
		user, err := repository.GetUserByTelegramID(ctx, s.db, ev.TelegramID)
		if err == nil {
			if pending, acErr := repository.GetPendingAntiCheatForUser(ctx, s.db, user.ID); acErr == nil && pending != nil {
				outcome, subErr := s.SubmitAnswer(ctx, user.ID, ev.Text, ev.At)
				if subErr != nil {
					return nil, nil, subErr
				}
				return nil, outcome, nil
			}
		}
	}

	verdict, err := s.HandleReport(ctx, ev)
	if err != nil {
		return nil, nil, err
	}
	return verdict, nil, nil
}

// HandleReport admits a voice/text report. Accepted reports start
// pending and are resolved only by the anti-cheat challenge.
func (s *AdmissionService) HandleReport(ctx context.Context, ev DirectMessageEvent) (*Verdict, error) {
	challenge, err := s.activeChallenge(ctx)
	if err != nil {
		return nil, err
	}

	user, err := repository.GetUserByTelegramID(ctx, s.db, ev.TelegramID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.NotJoined
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if err := repository.TouchLastSeen(ctx, s.db, user.ID, ev.At); err != nil {
		logger.Logger.Warn("Failed to update last_seen_at", zap.Error(err))
	}

	participation, err := repository.GetParticipation(ctx, s.db, user.ID, challenge.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !participation.IsActive()) {
		return nil, pkgerrors.NotJoined
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load participation: %w", err)
	}

	_, _, localDate, err := clock.UTCRangeForLocalDay(ev.At, user.Timezone)
	if err != nil {
		return nil, pkgerrors.InvalidTimezone
	}

	// Past wake+grace the penalty sweep owns the day.
	if participation.WakeMode == model.WakeModeFixed && participation.WakeTimeLocal != "" {
		wakeMinutes, parseErr := clock.ParseHHMM(participation.WakeTimeLocal)
		if parseErr == nil {
			_, _, _, hour, minute, locErr := clock.LocalParts(ev.At, user.Timezone)
			if locErr == nil && clock.MinutesOfDay(hour, minute) > wakeMinutes+clock.GraceAfterWakeMinutes {
				s.persistRejectedReport(ctx, user.ID, challenge.ID, ev, localDate, pkgerrors.PenaltyMode.Code)
				return nil, pkgerrors.PenaltyMode
			}
		}
	}

	exists, err := repository.HasReportForDate(ctx, s.db, user.ID, challenge.ID, localDate)
	if err != nil {
		return nil, fmt.Errorf("failed to check daily report: %w", err)
	}
	if exists {
		s.persistRejectedReport(ctx, user.ID, challenge.ID, ev, localDate, pkgerrors.AlreadyVoiceDay.Code)
		return nil, pkgerrors.AlreadyVoiceDay
	}

	checkIn := &model.CheckIn{
		UserID:      user.ID,
		ChallengeID: challenge.ID,
		Source:      ev.Source,
		Status:      model.CheckInStatusPending,
		LocalDate:   localDate,
		OccurredAt:  ev.At,
	}
	if err := repository.CreateCheckIn(ctx, s.db, checkIn); err != nil {
		return nil, fmt.Errorf("failed to persist check-in: %w", err)
	}

	reply := s.curatorReply(ctx, user, ev.Text)
	if ev.Source == model.CheckInSourceText && ev.Text != "" {
		if err := repository.SetCheckInTranscript(ctx, s.db, checkIn.ID, ev.Text); err != nil {
			logger.Logger.Warn("Failed to store transcript", zap.Error(err))
		}
	}

	question := anticheat.Generate()
	ac := &model.AntiCheatChallenge{
		CheckInID: checkIn.ID,
		UserID:    user.ID,
		Question:  question.Text,
		Answer:    question.Answer,
		Status:    model.AntiCheatStatusPending,
		ExpiresAt: ev.At.Add(anticheat.TTL),
	}
	if err := repository.CreateAntiCheat(ctx, s.db, ac); err != nil {
		return nil, fmt.Errorf("failed to create anti-cheat challenge: %w", err)
	}

	return &Verdict{
		Status:    VerdictPendingAntiCheat,
		Question:  question.Text,
		Reply:     reply,
		Message:   textReportAccepted(reply, question.Text),
		CheckInID: checkIn.ID,
	}, nil
}

func (s *AdmissionService) persistRejectedReport(ctx context.Context, userID, challengeID int64, ev DirectMessageEvent, localDate, reason string) {
	checkIn := &model.CheckIn{
		UserID:       userID,
		ChallengeID:  challengeID,
		Source:       ev.Source,
		Status:       model.CheckInStatusRejected,
		RejectReason: reason,
		LocalDate:    localDate,
		OccurredAt:   ev.At,
	}
	if err := repository.CreateCheckIn(ctx, s.db, checkIn); err != nil {
		logger.Logger.Error("Failed to persist rejected report", zap.Error(err))
	}
}

// curatorReply asks the external provider with a bounded timeout and
// falls back locally.
func (s *AdmissionService) curatorReply(ctx context.Context, user *model.User, text string) string {
	result, err := s.curator.Reply(ctx, curator.ReplyRequest{
		Text:     text,
		Locale:   "ru",
		Username: user.Username,
	})
	if err != nil || result == nil || result.Reply == "" {
		if err != nil {
			logger.Logger.Warn("Curator call failed, using fallback reply",
				zap.Int64("user_id", user.ID),
				zap.Error(err),
			)
		}
		return curator.FallbackReply
	}
	return result.Reply
}

// SubmitAnswer evaluates one anti-cheat submission. pending is the
// only state that accepts answers; every exit is terminal for the
// challenge except a wrong answer with attempts left.
func (s *AdmissionService) SubmitAnswer(ctx context.Context, userID int64, text string, at time.Time) (*AnswerOutcome, error) {
	pending, err := repository.GetPendingAntiCheatForUser(ctx, s.db, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.NoPendingCheck
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load anti-cheat challenge: %w", err)
	}

	if at.After(pending.ExpiresAt) {
		if err := s.resolveAntiCheat(ctx, pending, model.AntiCheatStatusExpired, pkgerrors.AntiCheatExpired.Code); err != nil {
			return nil, err
		}
		return &AnswerOutcome{Status: model.AntiCheatStatusExpired, Message: textAnswerExpired}, nil
	}

	answer, err := anticheat.ParseAnswer(text)
	if err != nil {
		return nil, pkgerrors.InvalidAnswer
	}

	if answer == pending.Answer {
		if err := s.resolveAntiCheat(ctx, pending, model.AntiCheatStatusPassed, ""); err != nil {
			return nil, err
		}
		return &AnswerOutcome{Status: model.AntiCheatStatusPassed, Message: textAnswerPassed}, nil
	}

	pending.Attempts++
	if pending.Attempts >= anticheat.MaxAttempts {
		if err := s.resolveAntiCheat(ctx, pending, model.AntiCheatStatusFailed, pkgerrors.AntiCheatFailed.Code); err != nil {
			return nil, err
		}
		return &AnswerOutcome{Status: model.AntiCheatStatusFailed, Message: textAnswerFailed}, nil
	}

	if err := repository.SaveAntiCheat(ctx, s.db, pending); err != nil {
		return nil, fmt.Errorf("failed to record attempt: %w", err)
	}

	left := anticheat.MaxAttempts - pending.Attempts
	return &AnswerOutcome{
		Status:       model.AntiCheatStatusPending,
		AttemptsLeft: left,
		Message:      textAnswerRetry(left),
	}, nil
}

// resolveAntiCheat moves the challenge and its owning check-in to
// their terminal states together.
func (s *AdmissionService) resolveAntiCheat(ctx context.Context, ac *model.AntiCheatChallenge, status model.AntiCheatStatus, rejectReason string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ac.Status = status
		if err := repository.SaveAntiCheat(ctx, tx, ac); err != nil {
			return fmt.Errorf("failed to resolve anti-cheat challenge: %w", err)
		}

		checkInStatus := model.CheckInStatusApproved
		if status != model.AntiCheatStatusPassed {
			checkInStatus = model.CheckInStatusRejected
		}
		if err := repository.UpdateCheckInStatus(ctx, tx, ac.CheckInID, checkInStatus, rejectReason); err != nil {
			return fmt.Errorf("failed to resolve check-in: %w", err)
		}
		return nil
	})
}

func (s *AdmissionService) activeChallenge(ctx context.Context) (*model.Challenge, error) {
	challenge, err := repository.GetActiveChallenge(ctx, s.db)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.NoActiveChallenge
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load active challenge: %w", err)
	}
	if !challenge.Enabled {
		return nil, pkgerrors.ChallengeDisabled
	}
	return challenge, nil
}
