package queue

// DirectMessageTask is a DM send request consumed by the worker. The
// MessageID doubles as the worker-side dedup key.
type DirectMessageTask struct {
	MessageID   string `json:"message_id"`
	Category    string `json:"category"`
	TelegramID  int64  `json:"telegram_id"`
	UserID      int64  `json:"user_id"`
	Text        string `json:"text"`
	ScheduledAt string `json:"scheduled_at"`
}
