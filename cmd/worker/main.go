package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"Podyom/config"
	"Podyom/internal/queue"
	"Podyom/internal/service"
	"Podyom/pkg/logger"
	"Podyom/pkg/snowflake"
	"Podyom/storage"
)

func main() {
	logger.Init()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	// Every consumer sends through the same gateway.
	queue.SetMessenger(service.GetMessenger())

	logger.Logger.Info("Worker service starting",
		zap.String("service", "podyom-worker"),
		zap.String("environment", config.Cfg.Environment),
	)

	sendDelay := time.Duration(config.Cfg.SweepSendDelayMs) * time.Millisecond
	queue.StartAllConsumers(ctx, sendDelay)

	logger.Logger.Info("Worker service shutting down gracefully")
}
