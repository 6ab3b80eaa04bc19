package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-digest/errors"
	"github.com/johnquangdev/meeting-digest/internal/domain/entities"
	"github.com/johnquangdev/meeting-digest/internal/usecase/pipeline"
)

// maxWebhookBodyBytes caps inbound payloads well above any realistic
// transcript size.
const maxWebhookBodyBytes = 10 << 20

// eventIDHeader carries the sender's delivery id when present.
const eventIDHeader = "X-Fireflies-Event-ID"

// WebhookHandler receives transcript-ready notifications and hands them
// to the pipeline.
type WebhookHandler struct {
	service pipeline.Service
	logger  *zap.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(service pipeline.Service, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		logger:  logger,
	}
}

// HandleFirefliesWebhook accepts a webhook delivery. The response only
// acknowledges receipt: 202 when the event is queued, 200 when it is a
// duplicate of an already-seen delivery.
func (h *WebhookHandler) HandleFirefliesWebhook(c echo.Context) error {
	req := c.Request()

	body, err := io.ReadAll(io.LimitReader(req.Body, maxWebhookBodyBytes))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload(fmt.Errorf("read body: %w", err)))
	}

	event := entities.NewWebhookEvent(req.Header.Get(eventIDHeader), req.Header, body)

	result, err := h.service.Accept(req.Context(), event)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	if result.Duplicate {
		return HandleSuccess(h.logger, c, http.StatusOK, map[string]interface{}{
			"event_id": result.EventID,
			"status":   "duplicate",
		})
	}

	return HandleSuccess(h.logger, c, http.StatusAccepted, map[string]interface{}{
		"event_id": result.EventID,
		"status":   "accepted",
	})
}
