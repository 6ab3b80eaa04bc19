package pipeline

import (
	"context"
	"errors"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-digest/internal/domain/entities"
	"github.com/johnquangdev/meeting-digest/pkg/config"
	"github.com/johnquangdev/meeting-digest/pkg/slack"
)

// messagePoster is the surface of the chat client the publisher needs.
type messagePoster interface {
	PostMessage(ctx context.Context, channel, text, threadTS string) (string, error)
}

// Publisher delivers a formatted message to the chat platform, applying
// the same bounded retry policy as the summarizer.
type Publisher struct {
	client messagePoster
	cfg    *config.PipelineConfig
	logger *zap.Logger
}

// NewPublisher creates a Publisher.
func NewPublisher(client messagePoster, cfg *config.PipelineConfig, logger *zap.Logger) *Publisher {
	return &Publisher{client: client, cfg: cfg, logger: logger}
}

// Publish posts the message, retrying transient failures with
// exponential backoff. Authentication and channel errors are permanent
// and fail immediately.
func (p *Publisher) Publish(ctx context.Context, msg entities.ChatMessage) error {
	op := func() error {
		_, err := p.client.PostMessage(ctx, msg.Channel, msg.Text, msg.ThreadTS)
		if err != nil {
			var apiErr *slack.APIError
			if errors.As(err, &apiErr) && !apiErr.Transient() {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.cfg.BackoffBase
	bo.Multiplier = 2
	bo.MaxElapsedTime = 0

	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(p.cfg.MaxAttempts-1)), ctx)); err != nil {
		var apiErr *slack.APIError
		if errors.As(err, &apiErr) && !apiErr.Transient() {
			return &PublishError{Kind: KindPermanent, Err: err}
		}
		return &PublishError{Kind: KindTransient, Err: err}
	}
	return nil
}
