package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"Podyom/internal/cache"
	"Podyom/pkg/logger"
	"Podyom/pkg/messenger"
	"Podyom/storage/mq"
)

var gateway messenger.Client

// SetMessenger injects the outbound gateway (set once at worker
// startup).
func SetMessenger(m messenger.Client) {
	gateway = m
}

// StartDirectMessageConsumer drains the DM queue. Delivery is
// at-least-once; the redis message mark keeps redeliveries from
// sending twice.
func StartDirectMessageConsumer(ctx context.Context, sendDelay time.Duration) error {
	handler := func(body []byte) error {
		var msg DirectMessageTask
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("failed to unmarshal direct message task: %w", err)
		}

		fresh, err := cache.TryMarkMessageProcessing(ctx, msg.MessageID, 24*time.Hour)
		if err != nil {
			logger.Logger.Warn("Failed to check message processed status",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
			// Proceed anyway; a duplicate send beats a dropped one.
		} else if !fresh {
			logger.Logger.Info("Message already processed, skipping",
				zap.String("message_id", msg.MessageID),
				zap.Int64("user_id", msg.UserID),
			)
			return nil
		}

		if gateway == nil {
			cache.UnmarkMessageProcessing(ctx, msg.MessageID)
			return fmt.Errorf("messenger gateway not initialized")
		}

		if err := gateway.SendDirect(ctx, msg.TelegramID, msg.Text); err != nil {
			// Release the mark so the requeued delivery retries.
			cache.UnmarkMessageProcessing(ctx, msg.MessageID)
			return fmt.Errorf("failed to send direct message: %w", err)
		}

		if err := cache.MarkMessageProcessed(ctx, msg.MessageID, 48*time.Hour); err != nil {
			logger.Logger.Warn("Failed to mark message as processed",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
		}

		logger.Logger.Info("Delivered direct message",
			zap.String("message_id", msg.MessageID),
			zap.String("category", msg.Category),
			zap.Int64("user_id", msg.UserID),
		)

		// Pace outbound sends so the gateway rate limit holds.
		if sendDelay > 0 {
			time.Sleep(sendDelay)
		}

		return nil
	}

	return mq.Consume(mq.ConsumeOptions{
		Queue:         mq.NotifyQueue,
		ConsumerTag:   "direct_message_consumer",
		PrefetchCount: 10,
		Handler:       handler,
	})
}

// StartAllConsumers blocks until every consumer loop exits.
func StartAllConsumers(ctx context.Context, sendDelay time.Duration) {
	var wg sync.WaitGroup

	consumers := []struct {
		name     string
		consumer func(context.Context) error
	}{
		{"direct_message", func(ctx context.Context) error {
			return StartDirectMessageConsumer(ctx, sendDelay)
		}},
	}

	for _, c := range consumers {
		wg.Add(1)
		go func(name string, consumer func(context.Context) error) {
			defer wg.Done()

			logger.Logger.Info("Starting consumer",
				zap.String("consumer_name", name),
			)

			if err := consumer(ctx); err != nil {
				logger.Logger.Error("Consumer exited with error",
					zap.String("consumer_name", name),
					zap.Error(err),
				)
			}
		}(c.name, c.consumer)
	}

	wg.Wait()
}
