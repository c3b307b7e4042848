package handler

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"

	"Podyom/internal/model"
	"Podyom/internal/service"
	pkgerrors "Podyom/pkg/errors"
	"Podyom/pkg/response"
)

// GroupTapRequest is a forwarded "+" message from the group channel.
type GroupTapRequest struct {
	TelegramID int64  `json:"telegram_id"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	At         string `json:"at"` // RFC3339, defaults to now
}

// DirectMessageRequest is a forwarded DM: a voice note, a text report
// or an anti-cheat answer.
type DirectMessageRequest struct {
	TelegramID int64  `json:"telegram_id"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	Source     string `json:"source"` // voice, text
	Text       string `json:"text"`
	At         string `json:"at"`
}

// eventTime parses the gateway timestamp, falling back to now so the
// bot can omit it.
func eventTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse(time.RFC3339, raw)
}

// PostGroupTap admits a "+" tap.
// POST /v1/events/group-tap
func PostGroupTap(ctx context.Context, c *app.RequestContext) {
	var req GroupTapRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}
	if req.TelegramID == 0 {
		response.Error(ctx, c, pkgerrors.InvalidUserID)
		return
	}

	at, err := eventTime(req.At)
	if err != nil {
		response.BindError(ctx, c, err)
		return
	}

	verdict, err := service.GetAdmissionService().HandleGroupTap(ctx, service.GroupTapEvent{
		TelegramID: req.TelegramID,
		Username:   req.Username,
		FirstName:  req.FirstName,
		At:         at,
	})
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, verdict)
}

// PostDirectMessage multiplexes an inbound DM into a report or an
// anti-cheat answer.
// POST /v1/events/direct-message
func PostDirectMessage(ctx context.Context, c *app.RequestContext) {
	var req DirectMessageRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}
	if req.TelegramID == 0 {
		response.Error(ctx, c, pkgerrors.InvalidUserID)
		return
	}

	source := model.CheckInSource(req.Source)
	if source != model.CheckInSourceVoice && source != model.CheckInSourceText {
		response.Error(ctx, c, pkgerrors.Definition{Code: "INVALID_REQUEST", Message: "Source must be voice or text"})
		return
	}

	at, err := eventTime(req.At)
	if err != nil {
		response.BindError(ctx, c, err)
		return
	}

	verdict, outcome, err := service.GetAdmissionService().HandleDirectMessage(ctx, service.DirectMessageEvent{
		TelegramID: req.TelegramID,
		Username:   req.Username,
		FirstName:  req.FirstName,
		Source:     source,
		Text:       req.Text,
		At:         at,
	})
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	if outcome != nil {
		response.Success(ctx, c, map[string]interface{}{"answer": outcome})
		return
	}
	response.Success(ctx, c, map[string]interface{}{"verdict": verdict})
}
