package service

import (
	"context"

	"Podyom/internal/model"
	"Podyom/internal/queue"
	"Podyom/pkg/messenger"
)

// Notifier delivers a direct message to a user. Production routes
// through the queue so the worker owns pacing and retries; tests and
// the worker itself use the direct path.
type Notifier interface {
	NotifyUser(ctx context.Context, user *model.User, category, text string) error
}

// QueueNotifier enqueues DM tasks for the worker.
type QueueNotifier struct{}

func (QueueNotifier) NotifyUser(_ context.Context, user *model.User, category, text string) error {
	return queue.PublishDirectMessage(queue.DirectMessageTask{
		Category:   category,
		TelegramID: user.TelegramID,
		UserID:     user.ID,
		Text:       text,
	})
}

// DirectNotifier sends through the messaging gateway immediately.
type DirectNotifier struct {
	Messenger messenger.Client
}

func (d DirectNotifier) NotifyUser(ctx context.Context, user *model.User, _, text string) error {
	return d.Messenger.SendDirect(ctx, user.TelegramID, text)
}
