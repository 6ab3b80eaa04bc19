package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-digest/internal/domain/entities"
	"github.com/johnquangdev/meeting-digest/pkg/ai"
	"github.com/johnquangdev/meeting-digest/pkg/config"
)

// messageCreator is the surface of the generative API client the
// summarizer needs.
type messageCreator interface {
	CreateMessage(ctx context.Context, prompt string) (string, error)
}

const summaryPromptTemplate = `You are given the transcript of a meeting. Summarize it and respond with a single JSON object, no surrounding prose, in exactly this shape:

{
  "overview": "short paragraph summarizing the meeting",
  "decisions": ["each decision made during the meeting"],
  "action_items": [{"text": "the follow-up task", "owner": "person responsible, empty string if unknown"}]
}

Use empty values when a section has no content. Do not invent content that is not in the transcript.

Meeting title: %s
Participants: %s

Transcript:
%s`

// Summarizer turns a transcript into structured minutes via the
// generative API, applying the bounded retry policy.
type Summarizer struct {
	client messageCreator
	parser *Parser
	cfg    *config.PipelineConfig
	logger *zap.Logger
}

// NewSummarizer creates a Summarizer.
func NewSummarizer(client messageCreator, cfg *config.PipelineConfig, logger *zap.Logger) *Summarizer {
	return &Summarizer{
		client: client,
		parser: NewParser(),
		cfg:    cfg,
		logger: logger,
	}
}

// Summarize builds the prompt, calls the model with retries on transient
// failures, and parses the structured response.
func (s *Summarizer) Summarize(ctx context.Context, transcript *entities.MeetingTranscript) (*entities.SummaryResult, error) {
	prompt := s.buildPrompt(transcript)

	var content string
	op := func() error {
		var err error
		content, err = s.client.CreateMessage(ctx, prompt)
		if err != nil {
			var apiErr *ai.APIError
			if errors.As(err, &apiErr) && !apiErr.Transient() {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(s.newBackOff(), ctx)); err != nil {
		var apiErr *ai.APIError
		if errors.As(err, &apiErr) && !apiErr.Transient() {
			return nil, &SummaryError{Kind: KindPermanent, Err: err}
		}
		return nil, &SummaryError{Kind: KindTransient, Err: err}
	}

	result, err := s.parser.ParseSummaryResponse(content)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to parse summary response",
				zap.String("meeting_id", transcript.MeetingID),
				zap.Error(err),
			)
		}
		return nil, &SummaryError{Kind: KindParse, Err: err}
	}

	return result, nil
}

// buildPrompt renders the fixed template with the transcript embedded
// verbatim, capped at the configured character budget.
func (s *Summarizer) buildPrompt(transcript *entities.MeetingTranscript) string {
	text := truncateTranscript(transcript.Text, s.cfg.TranscriptCharBudget)
	participants := strings.Join(transcript.Participants, ", ")
	if participants == "" {
		participants = "unknown"
	}
	return fmt.Sprintf(summaryPromptTemplate, transcript.Title, participants, text)
}

// newBackOff builds the exponential backoff for one summarize call:
// fixed base, doubling, capped attempts.
func (s *Summarizer) newBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.cfg.BackoffBase
	bo.Multiplier = 2
	bo.MaxElapsedTime = 0
	return backoff.WithMaxRetries(bo, uint64(s.cfg.MaxAttempts-1))
}

// truncateTranscript cuts the transcript from the end, keeping the
// earliest content. The cut lands on a line boundary where possible so
// no segment is split mid-utterance.
func truncateTranscript(text string, budget int) string {
	if budget <= 0 || len(text) <= budget {
		return text
	}

	cut := text[:budget]
	if idx := strings.LastIndexByte(cut, '\n'); idx > 0 {
		cut = cut[:idx]
	} else {
		// No newline inside the budget; back up to a rune boundary.
		for len(cut) > 0 {
			if r, size := utf8.DecodeLastRuneInString(cut); r != utf8.RuneError || size != 1 {
				break
			}
			cut = cut[:len(cut)-1]
		}
	}
	return cut + "\n[transcript truncated]"
}
