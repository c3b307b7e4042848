package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"Podyom/config"
	"Podyom/internal/cache"
	"Podyom/internal/repository"
	"Podyom/internal/sweep"
	"Podyom/pkg/logger"
	"Podyom/pkg/snowflake"
	"Podyom/storage"
	"Podyom/storage/database"
	"Podyom/storage/redis"
)

func main() {
	logger.Init()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Logger.Info("Scheduler received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage for scheduler", zap.Error(err))
	}
	defer storage.Close()

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake for scheduler", zap.Error(err))
	}

	logger.Logger.Info("Scheduler service starting",
		zap.String("service", "podyom-scheduler"),
		zap.String("environment", config.Cfg.Environment),
	)

	go runPenaltySweepLoop(ctx)
	go runSubscriptionSweepLoop(ctx)
	go runFineReconcileLoop(ctx)

	<-ctx.Done()

	logger.Logger.Info("Scheduler service shutting down gracefully")
}

// runLocked takes the named sweep lock before running; overlapping
// scheduler instances then cost nothing beyond the lock check.
func runLocked(ctx context.Context, name string, timeout time.Duration, run func(context.Context) error) {
	locked, err := cache.TryAcquireSweepLock(ctx, redis.Client(), name, timeout)
	if err != nil {
		logger.Logger.Error("Failed to acquire sweep lock",
			zap.String("sweep", name),
			zap.Error(err),
		)
		return
	}
	if !locked {
		logger.Logger.Info("Sweep already running elsewhere, skipping",
			zap.String("sweep", name),
		)
		return
	}
	defer func() {
		if err := cache.ReleaseSweepLock(ctx, redis.Client(), name); err != nil {
			logger.Logger.Warn("Failed to release sweep lock",
				zap.String("sweep", name),
				zap.Error(err),
			)
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := run(runCtx); err != nil {
		logger.Logger.Error("Sweep run failed",
			zap.String("sweep", name),
			zap.Error(err),
		)
	}
}

// runPenaltySweepLoop drives the morning escalation sweep. Wake times
// spread across timezones, so it runs every few minutes all day.
func runPenaltySweepLoop(ctx context.Context) {
	interval := 5 * time.Minute
	if config.Cfg.Environment == "development" {
		interval = 1 * time.Minute
		logger.Logger.Info("Penalty sweep loop running in development mode with 1m interval")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runLocked(ctx, "penalty", 5*time.Minute, func(runCtx context.Context) error {
				_, err := sweep.GetPenaltySweep().Run(runCtx, time.Now().UTC(), false)
				return err
			})
		}
	}
}

// runSubscriptionSweepLoop checks paid-access expiry. Hourly is plenty
// for day-granular deadlines.
func runSubscriptionSweepLoop(ctx context.Context) {
	interval := 1 * time.Hour
	if config.Cfg.Environment == "development" {
		interval = 1 * time.Minute
		logger.Logger.Info("Subscription sweep loop running in development mode with 1m interval")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runLocked(ctx, "subscription", 5*time.Minute, func(runCtx context.Context) error {
				_, err := sweep.GetSubscriptionSweep().Run(runCtx, time.Now().UTC(), false)
				return err
			})
		}
	}
}

// runFineReconcileLoop confirms fine intents against payments that
// arrived since the intent was opened.
func runFineReconcileLoop(ctx context.Context) {
	interval := 15 * time.Minute
	if config.Cfg.Environment == "development" {
		interval = 1 * time.Minute
		logger.Logger.Info("Fine reconcile loop running in development mode with 1m interval")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runLocked(ctx, "fines", 2*time.Minute, func(runCtx context.Context) error {
				challenge, err := repository.GetActiveChallenge(runCtx, database.DB())
				if err != nil {
					return err
				}

				confirmed, err := sweep.GetPenaltySweep().ReconcileFineIntents(runCtx, challenge.ID, time.Now().UTC())
				if err != nil {
					return err
				}
				if confirmed > 0 {
					logger.Logger.Info("Confirmed fines", zap.Int("count", confirmed))
				}
				return nil
			})
		}
	}
}
