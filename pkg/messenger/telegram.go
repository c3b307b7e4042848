package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"Podyom/pkg/logger"
)

// TelegramClient talks to the Bot API over HTTP.
type TelegramClient struct {
	apiBase string
	token   string
	client  *http.Client
}

func NewTelegramClient(apiBase, token string, timeout time.Duration) *TelegramClient {
	return &TelegramClient{
		apiBase: apiBase,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (t *TelegramClient) SendDirect(ctx context.Context, telegramID int64, text string) error {
	return t.call(ctx, "sendMessage", map[string]interface{}{
		"chat_id": telegramID,
		"text":    text,
	})
}

func (t *TelegramClient) SendChannel(ctx context.Context, channelID int64, text string) error {
	return t.call(ctx, "sendMessage", map[string]interface{}{
		"chat_id": channelID,
		"text":    text,
	})
}

func (t *TelegramClient) RemoveFromChannel(ctx context.Context, channelID, telegramID int64) error {
	if err := t.call(ctx, "banChatMember", map[string]interface{}{
		"chat_id": channelID,
		"user_id": telegramID,
	}); err != nil {
		return err
	}

	// Immediate unban so the removal is not a lasting exclusion.
	return t.call(ctx, "unbanChatMember", map[string]interface{}{
		"chat_id":        channelID,
		"user_id":        telegramID,
		"only_if_banned": true,
	})
}

func (t *TelegramClient) call(ctx context.Context, method string, params map[string]interface{}) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal %s params: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", t.apiBase, t.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s failed: %w", method, err)
	}
	defer resp.Body.Close()

	var apiResp struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(payload, &apiResp); err != nil {
		return fmt.Errorf("telegram %s: unparseable response: %w", method, err)
	}

	if !apiResp.OK {
		logger.Logger.Warn("Telegram API call rejected",
			zap.String("method", method),
			zap.Int("status", resp.StatusCode),
			zap.String("description", apiResp.Description),
		)
		return fmt.Errorf("telegram %s rejected: %s", method, apiResp.Description)
	}

	return nil
}
