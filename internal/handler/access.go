package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"gorm.io/gorm"

	"Podyom/internal/model"
	"Podyom/internal/repository"
	"Podyom/internal/service"
	pkgerrors "Podyom/pkg/errors"
	"Podyom/pkg/response"
	"Podyom/storage/database"
)

// GetAccess resolves the access class for a user and, as a side
// effect, fires any due lifecycle notice.
// GET /v1/users/:telegram_id/access
func GetAccess(ctx context.Context, c *app.RequestContext) {
	telegramID, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		response.Error(ctx, c, pkgerrors.InvalidUserID)
		return
	}

	user, challenge, err := resolveUserAndChallenge(ctx, telegramID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	var participation *model.Participation
	p, err := repository.GetParticipation(ctx, database.DB(), user.ID, challenge.ID)
	if err == nil {
		participation = p
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		response.Error(ctx, c, err)
		return
	}

	now := time.Now().UTC()
	accessSvc := service.GetAccessService()

	info, err := accessSvc.Resolve(ctx, user.ID, participation, now)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	accessSvc.MaybeSendLifecycleNotices(ctx, user, challenge.ID, participation, info, now)

	response.Success(ctx, c, info)
}
