package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/johnquangdev/meeting-digest/pkg/config"
)

// Client is a minimal client for the Slack Web API, scoped to posting
// messages with a bot token.
type Client struct {
	token   string
	baseURL string
	client  *http.Client
}

// NewClient creates a Slack client using values from the provided config.
func NewClient(cfg *config.SlackConfig) *Client {
	return &Client{
		token:   cfg.BotToken,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// postMessageRequest is the chat.postMessage request shape.
type postMessageRequest struct {
	Channel  string `json:"channel"`
	Text     string `json:"text"`
	ThreadTS string `json:"thread_ts,omitempty"`
}

// postMessageResponse is a minimal chat.postMessage response shape.
type postMessageResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	TS    string `json:"ts,omitempty"`
}

// APIError reports a failed Slack API call, either a non-2xx HTTP status
// or an ok:false body with an error code.
type APIError struct {
	StatusCode int
	Code       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("slack API error: %s", e.Code)
	}
	return fmt.Sprintf("slack returned status %d", e.StatusCode)
}

// Transient reports whether the failure is worth retrying. Everything
// except rate limiting and server errors is permanent: codes like
// invalid_auth, channel_not_found or is_archived will not self-resolve.
func (e *APIError) Transient() bool {
	if e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500 {
		return true
	}
	return e.Code == "ratelimited" || e.Code == "rate_limited"
}

// PostMessage posts text to a channel and returns the message timestamp.
func (c *Client) PostMessage(ctx context.Context, channel, text, threadTS string) (string, error) {
	reqBody := postMessageRequest{Channel: channel, Text: text, ThreadTS: threadTS}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	endpoint := c.baseURL + "/chat.postMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &APIError{StatusCode: resp.StatusCode}
	}

	var pr postMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return "", err
	}
	if !pr.OK {
		return "", &APIError{StatusCode: resp.StatusCode, Code: pr.Error}
	}
	return pr.TS, nil
}
