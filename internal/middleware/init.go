package middleware

import (
	"go.uber.org/zap"

	"Podyom/pkg/logger"
)

// Init initializes all middlewares that need setup before use.
func Init() error {
	if err := initAuthMiddleware(); err != nil {
		logger.Logger.Error("Failed to initialize auth middleware", zap.Error(err))
		return err
	}

	logger.Logger.Info("All middlewares initialized successfully")
	return nil
}
