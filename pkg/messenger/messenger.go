// Package messenger is the gateway to the chat platform: direct
// messages, channel posts and the ban-then-unban removal pattern.
package messenger

import "context"

type Client interface {
	SendDirect(ctx context.Context, telegramID int64, text string) error
	SendChannel(ctx context.Context, channelID int64, text string) error
	// RemoveFromChannel kicks a member without leaving a persistent
	// ban: ban then immediately unban, so rejoining stays possible.
	RemoveFromChannel(ctx context.Context, channelID, telegramID int64) error
}
