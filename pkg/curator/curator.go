// Package curator calls the external reply provider that turns a
// check-in transcript into a short human reply.
package curator

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

// ReplyRequest carries the report text plus locale hints.
type ReplyRequest struct {
	Text     string `json:"text"`
	Locale   string `json:"locale,omitempty"`
	Username string `json:"username,omitempty"`
}

// ReplyResult is what the provider returns. Confidence and transcript
// are optional.
type ReplyResult struct {
	Reply      string  `json:"reply"`
	Transcript string  `json:"transcript,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Client produces a reply for a report, or an error that the caller
// converts into the built-in fallback.
type Client interface {
	Reply(ctx context.Context, req ReplyRequest) (*ReplyResult, error)
}

// HTTPClient posts to the curator endpoint with a bounded timeout.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Reply(ctx context.Context, req ReplyRequest) (*ReplyResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal curator request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/reply", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build curator request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("curator request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logger.Logger.Warn("Curator returned non-200",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", payload),
		)
		return nil, fmt.Errorf("curator returned status %d", resp.StatusCode)
	}

	var result ReplyResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode curator response: %w", err)
	}

	return &result, nil
}

// FallbackReply is used whenever the provider is disabled, times out
// or fails.
const FallbackReply = "Принято! Хорошего дня 💪"

// Disabled is a Client that always falls through to the fallback.
type Disabled struct{}

func (Disabled) Reply(context.Context, ReplyRequest) (*ReplyResult, error) {
	return nil, fmt.Errorf("curator disabled")
}
