package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"Podyom/internal/handler"
	"Podyom/internal/middleware"
)

func Register(h *server.Hertz) {

	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.CORSMiddleware())
	h.Use(middleware.OpenTelemetryMiddleware())

	v1 := h.Group("/v1")

	// Inbound bot events: the gateway forwards taps and DMs here.
	events := v1.Group("/events")
	events.Use(middleware.EventsRateLimitMiddleware())
	{
		events.POST("/group-tap", handler.PostGroupTap)
		events.POST("/direct-message", handler.PostDirectMessage)
	}

	// Participation lifecycle, driven by bot commands.
	participations := v1.Group("/participations")
	participations.Use(middleware.EventsRateLimitMiddleware())
	{
		participations.POST("/join", handler.JoinChallenge)
		participations.POST("/leave", handler.LeaveChallenge)
		participations.POST("/wake-time", handler.SetWakeTime)
		participations.POST("/timezone", handler.SetTimezone)
		participations.POST("/trial", handler.StartTrial)
	}

	users := v1.Group("/users")
	{
		users.GET("/:telegram_id/access", handler.GetAccess)
	}

	// Payment gateway callbacks.
	payments := v1.Group("/payments")
	{
		payments.POST("", handler.CreatePayment)
		payments.POST("/refund", handler.NotifyRefund)
	}

	penalties := v1.Group("/penalties")
	{
		penalties.POST("/choice", handler.PostPenaltyChoice)
	}

	// Admin API behind the shared-secret JWT exchange.
	adminAuth := v1.Group("/admin")
	adminAuth.Use(middleware.AuthRateLimitMiddleware())
	{
		adminAuth.POST("/login", handler.AdminLogin)
		adminAuth.POST("/token/refresh", handler.RefreshToken)
	}

	admin := v1.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	{
		sweeps := admin.Group("/sweeps", middleware.SweepRateLimitMiddleware())
		{
			sweeps.POST("/penalty", handler.RunPenaltySweep)
			sweeps.POST("/subscription", handler.RunSubscriptionSweep)
			sweeps.POST("/fines", handler.ReconcileFines)
		}

		admin.POST("/buddies", handler.AssignBuddy)
		admin.PATCH("/challenges/:challenge_id/enabled", handler.SetChallengeEnabled)
	}
}
