package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"MedDigest/internal/domain"
)

const (
	apiBase       = "https://api.telegram.org"
	clientTimeout = 5 * time.Second
)

// client is the thin bot API transport shared by the publisher and
// the moderation sender.
type client struct {
	baseURL  string
	botToken string
	http     *http.Client
}

func newClient(botToken string) *client {
	return &client{
		baseURL:  apiBase,
		botToken: botToken,
		http:     &http.Client{Timeout: clientTimeout},
	}
}

type sendResponse struct {
	OK     bool `json:"ok"`
	Result struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
	Description string `json:"description"`
}

// sendMessage posts a Markdown message and returns the message id
// Telegram assigned.
func (c *client) sendMessage(ctx context.Context, chatID, text string) (int64, error) {
	if c.botToken == "" || chatID == "" {
		return 0, fmt.Errorf("telegram client misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.botToken)
	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", text)
	form.Set("parse_mode", "Markdown")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &domain.TransientError{Op: "telegram send", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("telegram error: %s", resp.Status)
	}

	var parsed sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	if !parsed.OK {
		return 0, fmt.Errorf("telegram rejected message: %s", parsed.Description)
	}

	return parsed.Result.MessageID, nil
}
