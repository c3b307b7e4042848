package handler

import (
	"context"
	"crypto/subtle"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"Podyom/config"
	"Podyom/internal/repository"
	"Podyom/internal/service"
	"Podyom/internal/sweep"
	pkgerrors "Podyom/pkg/errors"
	"Podyom/pkg/logger"
	"Podyom/pkg/response"
	"Podyom/pkg/token"
	"Podyom/storage/database"
)

type AdminLoginRequest struct {
	Secret string `json:"secret"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// AdminLogin exchanges the shared admin secret for a JWT pair.
// POST /v1/admin/login
func AdminLogin(ctx context.Context, c *app.RequestContext) {
	var req AdminLoginRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	secret := config.Cfg.AdminSecret
	if secret == "" || subtle.ConstantTimeCompare([]byte(req.Secret), []byte(secret)) != 1 {
		response.Error(ctx, c, pkgerrors.AdminSecretInvalid)
		return
	}

	access, refresh, expiresIn, err := token.GenerateTokenPair("admin")
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, TokenPairResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    expiresIn,
	})
}

// RefreshToken exchanges a refresh token for a fresh pair.
// POST /v1/admin/token/refresh
func RefreshToken(ctx context.Context, c *app.RequestContext) {
	var req RefreshTokenRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	identity, err := token.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		response.Error(ctx, c, pkgerrors.Unauthorized)
		return
	}

	access, refresh, expiresIn, err := token.GenerateTokenPair(identity)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, TokenPairResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    expiresIn,
	})
}

type SweepRequest struct {
	DryRun bool `json:"dry_run"`
}

// RunPenaltySweep triggers the penalty sweep out of schedule.
// POST /v1/admin/sweeps/penalty
func RunPenaltySweep(ctx context.Context, c *app.RequestContext) {
	var req SweepRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	runID := uuid.NewString()
	logger.Logger.Info("Manual penalty sweep requested",
		zap.String("run_id", runID),
		zap.Bool("dry_run", req.DryRun),
	)

	summary, err := sweep.GetPenaltySweep().Run(ctx, time.Now().UTC(), req.DryRun)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.SuccessWithMeta(ctx, c, summary, map[string]interface{}{"run_id": runID})
}

// RunSubscriptionSweep triggers the subscription sweep out of
// schedule.
// POST /v1/admin/sweeps/subscription
func RunSubscriptionSweep(ctx context.Context, c *app.RequestContext) {
	var req SweepRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	runID := uuid.NewString()
	logger.Logger.Info("Manual subscription sweep requested",
		zap.String("run_id", runID),
		zap.Bool("dry_run", req.DryRun),
	)

	summary, err := sweep.GetSubscriptionSweep().Run(ctx, time.Now().UTC(), req.DryRun)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.SuccessWithMeta(ctx, c, summary, map[string]interface{}{"run_id": runID})
}

// ReconcileFines confirms fine intents against received payments.
// POST /v1/admin/sweeps/fines
func ReconcileFines(ctx context.Context, c *app.RequestContext) {
	challenge, err := repository.GetActiveChallenge(ctx, database.DB())
	if err != nil {
		response.Error(ctx, c, pkgerrors.NoActiveChallenge)
		return
	}

	confirmed, err := sweep.GetPenaltySweep().ReconcileFineIntents(ctx, challenge.ID, time.Now().UTC())
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, map[string]interface{}{"confirmed": confirmed})
}

type AssignBuddyRequest struct {
	ParticipationAID int64 `json:"participation_a_id"`
	ParticipationBID int64 `json:"participation_b_id"`
}

// AssignBuddy pairs two participations.
// POST /v1/admin/buddies
func AssignBuddy(ctx context.Context, c *app.RequestContext) {
	var req AssignBuddyRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	pair, err := service.GetBuddyService().Assign(ctx, req.ParticipationAID, req.ParticipationBID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, pair)
}

type ChallengeEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// SetChallengeEnabled flips the emergency switch for a challenge.
// PATCH /v1/admin/challenges/:challenge_id/enabled
func SetChallengeEnabled(ctx context.Context, c *app.RequestContext) {
	challengeID, err := strconv.ParseInt(c.Param("challenge_id"), 10, 64)
	if err != nil {
		response.BindError(ctx, c, err)
		return
	}

	var req ChallengeEnabledRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	if err := repository.SetChallengeEnabled(ctx, database.DB(), challengeID, req.Enabled); err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, map[string]interface{}{
		"challenge_id": challengeID,
		"enabled":      req.Enabled,
	})
}
