package handler

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"gorm.io/gorm"

	"Podyom/config"
	"Podyom/internal/model"
	"Podyom/internal/repository"
	"Podyom/internal/service"
	pkgerrors "Podyom/pkg/errors"
	"Podyom/pkg/response"
	"Podyom/storage/database"
)

type JoinRequest struct {
	TelegramID int64  `json:"telegram_id"`
	WakeMode   string `json:"wake_mode"` // fixed, flex
	WakeTime   string `json:"wake_time"` // HH:MM, fixed mode only
}

type WakeTimeRequest struct {
	TelegramID int64  `json:"telegram_id"`
	WakeTime   string `json:"wake_time"`
}

type TimezoneRequest struct {
	TelegramID int64  `json:"telegram_id"`
	Timezone   string `json:"timezone"`
}

type TrialRequest struct {
	TelegramID int64 `json:"telegram_id"`
}

// resolveUserAndChallenge maps a telegram id onto the active challenge
// context shared by every participation endpoint.
func resolveUserAndChallenge(ctx context.Context, telegramID int64) (*model.User, *model.Challenge, error) {
	challenge, err := repository.GetActiveChallenge(ctx, database.DB())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, pkgerrors.NoActiveChallenge
	}
	if err != nil {
		return nil, nil, err
	}

	user, err := repository.GetUserByTelegramID(ctx, database.DB(), telegramID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, pkgerrors.UserNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	return user, challenge, nil
}

// JoinChallenge activates a participation, registering the user on
// first contact.
// POST /v1/participations/join
func JoinChallenge(ctx context.Context, c *app.RequestContext) {
	var req JoinRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}
	if req.TelegramID == 0 {
		response.Error(ctx, c, pkgerrors.InvalidUserID)
		return
	}

	challenge, err := repository.GetActiveChallenge(ctx, database.DB())
	if err != nil {
		response.Error(ctx, c, pkgerrors.NoActiveChallenge)
		return
	}

	user, _, err := repository.EnsureUser(ctx, database.DB(), req.TelegramID, "", "", config.Cfg.DefaultTimezone)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	participation, err := service.GetParticipationService().Join(ctx, user.ID, challenge.ID, model.WakeMode(req.WakeMode), req.WakeTime)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, participation)
}

// SetWakeTime changes the committed wake time.
// POST /v1/participations/wake-time
func SetWakeTime(ctx context.Context, c *app.RequestContext) {
	var req WakeTimeRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	user, challenge, err := resolveUserAndChallenge(ctx, req.TelegramID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	participation, err := service.GetParticipationService().SetWakeTime(ctx, user.ID, challenge.ID, req.WakeTime)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, participation)
}

// SetTimezone updates the user timezone and the derived wake minute.
// POST /v1/participations/timezone
func SetTimezone(ctx context.Context, c *app.RequestContext) {
	var req TimezoneRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	user, _, err := resolveUserAndChallenge(ctx, req.TelegramID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	if err := service.GetParticipationService().SetTimezone(ctx, user.ID, req.Timezone); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, map[string]interface{}{"timezone": req.Timezone})
}

// LeaveChallenge stops the participation.
// POST /v1/participations/leave
func LeaveChallenge(ctx context.Context, c *app.RequestContext) {
	var req TrialRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	user, challenge, err := resolveUserAndChallenge(ctx, req.TelegramID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	if err := service.GetParticipationService().Leave(ctx, user.ID, challenge.ID, time.Now().UTC()); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, map[string]interface{}{"left": true})
}

// StartTrial stamps the trial start once.
// POST /v1/participations/trial
func StartTrial(ctx context.Context, c *app.RequestContext) {
	var req TrialRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	user, challenge, err := resolveUserAndChallenge(ctx, req.TelegramID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	participation, err := service.GetParticipationService().StartTrial(ctx, user.ID, challenge.ID, time.Now().UTC())
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, participation)
}
