package handler

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"go.uber.org/zap"

	"Podyom/internal/model"
	"Podyom/internal/repository"
	"Podyom/internal/service"
	"Podyom/internal/sweep"
	pkgerrors "Podyom/pkg/errors"
	"Podyom/pkg/logger"
	"Podyom/pkg/response"
	"Podyom/storage/database"
)

// PaymentRequest is a provider-confirmed transaction pushed by the
// payment gateway. Signature verification happens upstream.
type PaymentRequest struct {
	TelegramID int64  `json:"telegram_id"`
	PlanCode   string `json:"plan_code"`
	Amount     int    `json:"amount"`
	PaidAt     string `json:"paid_at"` // RFC3339, defaults to now
}

type RefundRequest struct {
	TelegramID int64 `json:"telegram_id"`
}

// CreatePayment records a paid transaction and reconciles any open
// fine intents against it.
// POST /v1/payments
func CreatePayment(ctx context.Context, c *app.RequestContext) {
	var req PaymentRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	user, challenge, err := resolveUserAndChallenge(ctx, req.TelegramID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	paidAt := time.Now().UTC()
	if req.PaidAt != "" {
		paidAt, err = time.Parse(time.RFC3339, req.PaidAt)
		if err != nil {
			response.BindError(ctx, c, err)
			return
		}
	}

	payment := &model.Payment{
		UserID:   user.ID,
		PlanCode: req.PlanCode,
		Amount:   req.Amount,
		Status:   model.PaymentStatusPaid,
		PaidAt:   &paidAt,
	}
	if err := repository.CreatePayment(ctx, database.DB(), payment); err != nil {
		response.Error(ctx, c, err)
		return
	}

	// A fresh payment may settle an outstanding fine.
	if _, err := sweep.GetPenaltySweep().ReconcileFineIntents(ctx, challenge.ID, paidAt); err != nil {
		logger.Logger.Warn("Fine reconciliation after payment failed",
			zap.Int64("user_id", user.ID),
			zap.Error(err),
		)
	}

	response.Success(ctx, c, payment)
}

// NotifyRefund sends the one-time refund notice.
// POST /v1/payments/refund
func NotifyRefund(ctx context.Context, c *app.RequestContext) {
	var req RefundRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	user, challenge, err := resolveUserAndChallenge(ctx, req.TelegramID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	service.GetAccessService().NotifyRefund(ctx, user, challenge.ID)

	response.Success(ctx, c, map[string]interface{}{"notified": true})
}

// PenaltyChoiceRequest is the user's squats-or-fine pick for a missed
// day.
type PenaltyChoiceRequest struct {
	TelegramID int64  `json:"telegram_id"`
	LocalDate  string `json:"local_date"` // 2006-01-02
	Choice     string `json:"choice"`     // squats, fine
}

// PostPenaltyChoice records the penalty pick.
// POST /v1/penalties/choice
func PostPenaltyChoice(ctx context.Context, c *app.RequestContext) {
	var req PenaltyChoiceRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}
	if _, err := time.Parse("2006-01-02", req.LocalDate); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	user, challenge, err := resolveUserAndChallenge(ctx, req.TelegramID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	if err := sweep.GetPenaltySweep().PenaltyChoice(ctx, user.ID, challenge.ID, req.LocalDate, req.Choice); err != nil {
		response.Error(ctx, c, pkgerrors.Definition{Code: "INVALID_REQUEST", Message: err.Error()})
		return
	}

	response.Success(ctx, c, map[string]interface{}{"recorded": true})
}
