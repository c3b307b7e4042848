package queue

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"Podyom/pkg/logger"
	"Podyom/pkg/snowflake"
	"Podyom/storage/mq"
)

// PublishDirectMessage enqueues a DM task for the worker.
func PublishDirectMessage(msg DirectMessageTask) error {
	if msg.MessageID == "" {
		id, err := snowflake.NextID()
		if err != nil {
			logger.Logger.Error("Failed to generate message ID",
				zap.Int64("user_id", msg.UserID),
				zap.Error(err),
			)
			return fmt.Errorf("failed to generate message ID: %w", err)
		}
		msg.MessageID = fmt.Sprintf("dm_%d", id)
	}

	if msg.ScheduledAt == "" {
		msg.ScheduledAt = time.Now().Format(time.RFC3339)
	}

	routingKey := mq.RouteDirectMessage
	if msg.Category != "" {
		routingKey = fmt.Sprintf("%s.%s", mq.RouteDirectMessage, msg.Category)
	}

	err := mq.PublishMessage(
		mq.NotifyExchange,
		routingKey,
		msg,
	)

	if err != nil {
		logger.Logger.Error("Failed to publish direct message task",
			zap.String("message_id", msg.MessageID),
			zap.Int64("user_id", msg.UserID),
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
		return err
	}

	logger.Logger.Info("Published direct message task",
		zap.String("message_id", msg.MessageID),
		zap.Int64("user_id", msg.UserID),
		zap.String("routing_key", routingKey),
	)

	return nil
}
