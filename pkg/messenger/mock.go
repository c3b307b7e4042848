package messenger

import (
	"context"
	"sync"
)

// Mock records every outbound call; shared by service and sweep tests.
type Mock struct {
	mu sync.Mutex

	Direct  []MockMessage
	Channel []MockMessage
	Removed []MockRemoval

	// FailDirectFor makes SendDirect fail for the listed recipients.
	FailDirectFor map[int64]error
}

type MockMessage struct {
	ChatID int64
	Text   string
}

type MockRemoval struct {
	ChannelID  int64
	TelegramID int64
}

func NewMock() *Mock {
	return &Mock{FailDirectFor: make(map[int64]error)}
}

func (m *Mock) SendDirect(_ context.Context, telegramID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.FailDirectFor[telegramID]; ok {
		return err
	}

	m.Direct = append(m.Direct, MockMessage{ChatID: telegramID, Text: text})
	return nil
}

func (m *Mock) SendChannel(_ context.Context, channelID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Channel = append(m.Channel, MockMessage{ChatID: channelID, Text: text})
	return nil
}

func (m *Mock) RemoveFromChannel(_ context.Context, channelID, telegramID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Removed = append(m.Removed, MockRemoval{ChannelID: channelID, TelegramID: telegramID})
	return nil
}

// DirectTexts returns the direct-message bodies sent to a recipient.
func (m *Mock) DirectTexts(telegramID int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []string
	for _, msg := range m.Direct {
		if msg.ChatID == telegramID {
			out = append(out, msg.Text)
		}
	}
	return out
}
