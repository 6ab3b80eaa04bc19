package entities

import (
	"net/http"
	"time"
)

// WebhookEvent is one inbound notification from the meeting-recording
// service. Once the orchestrator has assigned its ID, downstream
// components read from it but never modify it.
type WebhookEvent struct {
	ID         string
	Headers    http.Header
	Body       []byte
	ReceivedAt time.Time
}

// NewWebhookEvent builds an event from the raw request parts. The id may
// be empty here; the orchestrator fills it from the payload envelope.
func NewWebhookEvent(id string, headers http.Header, body []byte) *WebhookEvent {
	return &WebhookEvent{
		ID:         id,
		Headers:    headers.Clone(),
		Body:       body,
		ReceivedAt: time.Now(),
	}
}

// BearerToken extracts the bearer token from the Authorization header.
// Returns an empty string when the header is missing or not Bearer-shaped.
func (e *WebhookEvent) BearerToken() string {
	auth := e.Headers.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || auth[:len(prefix)] != prefix {
		return ""
	}
	return auth[len(prefix):]
}
