package pipeline

import (
	"context"
	"crypto/hmac"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-digest/errors"
	"github.com/johnquangdev/meeting-digest/internal/adapter/dto"
	"github.com/johnquangdev/meeting-digest/internal/domain/entities"
	"github.com/johnquangdev/meeting-digest/internal/infrastructure/ledger"
	"github.com/johnquangdev/meeting-digest/internal/metrics"
	"github.com/johnquangdev/meeting-digest/pkg/config"
	"github.com/johnquangdev/meeting-digest/pkg/jobcontext"
)

// Service sequences the pipeline: authentication, idempotency, then
// background extraction, summarization, formatting and delivery.
type Service interface {
	Accept(ctx context.Context, event *entities.WebhookEvent) (*AcceptResult, error)
	Start(workerCount int) error
	Stop() error
}

// AcceptResult is the orchestrator's answer to the gateway.
type AcceptResult struct {
	EventID   string `json:"event_id"`
	Duplicate bool   `json:"-"`
}

type service struct {
	extractor  *Extractor
	summarizer *Summarizer
	formatter  *Formatter
	publisher  *Publisher
	ledger     ledger.DeliveryLedger
	cfg        *config.Config
	logger     *zap.Logger

	queue    chan *entities.WebhookEvent
	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

// NewService constructs the pipeline orchestrator.
func NewService(
	extractor *Extractor,
	summarizer *Summarizer,
	formatter *Formatter,
	publisher *Publisher,
	dl ledger.DeliveryLedger,
	cfg *config.Config,
	logger *zap.Logger,
) Service {
	return &service{
		extractor:  extractor,
		summarizer: summarizer,
		formatter:  formatter,
		publisher:  publisher,
		ledger:     dl,
		cfg:        cfg,
		logger:     logger,
		queue:      make(chan *entities.WebhookEvent, cfg.Pipeline.QueueSize),
		stopChan:   make(chan struct{}),
	}
}

// Accept authenticates the event, runs the idempotency check, and hands
// the event to the worker pool. It returns as soon as the event is
// queued; the remaining steps run in the background so the chat post
// never depends on the inbound connection staying open.
func (s *service) Accept(ctx context.Context, event *entities.WebhookEvent) (*AcceptResult, error) {
	// Step 1: authenticate. Constant-time compare, nothing else runs on
	// mismatch, and the configured secret is never logged.
	token := event.BearerToken()
	if token == "" || !hmac.Equal([]byte(token), []byte(s.cfg.Webhook.Secret)) {
		metrics.RecordOutcome("rejected")
		return nil, apperrors.ErrUnauthenticated()
	}

	// Step 2: derive the idempotency key. Only the envelope is parsed
	// here; full schema validation happens in the extractor.
	var env dto.EventEnvelope
	if err := json.Unmarshal(event.Body, &env); err != nil {
		return nil, apperrors.ErrInvalidPayload(err)
	}
	if event.ID == "" {
		event.ID = env.EventID
	}
	if event.ID == "" {
		event.ID = env.MeetingID
	}
	if event.ID == "" {
		// No external id anywhere; process as a one-off.
		event.ID = uuid.NewString()
	}

	// Step 3: atomic check-and-reserve. A redelivered or concurrently
	// duplicated event id loses the reservation and is acknowledged
	// without reprocessing.
	reserved, err := s.ledger.Reserve(ctx, event.ID)
	if err != nil {
		return nil, apperrors.ErrInternal(fmt.Errorf("ledger reserve: %w", err))
	}
	if !reserved {
		metrics.RecordOutcome("duplicate")
		if s.logger != nil {
			s.logger.Info("duplicate webhook delivery ignored",
				zap.String("event_id", event.ID),
			)
		}
		return &AcceptResult{EventID: event.ID, Duplicate: true}, nil
	}

	s.queue <- event
	metrics.QueueDepth.Inc()

	return &AcceptResult{EventID: event.ID}, nil
}

// Start launches the worker pool.
func (s *service) Start(workerCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("worker pool already running")
	}
	s.running = true
	s.stopChan = make(chan struct{})

	if s.logger != nil {
		s.logger.Info("starting pipeline worker pool", zap.Int("worker_count", workerCount))
	}

	for i := 0; i < workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	return nil
}

// Stop signals the workers and waits for in-flight events to finish.
func (s *service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return fmt.Errorf("worker pool not running")
	}

	close(s.stopChan)
	s.wg.Wait()
	s.running = false

	if s.logger != nil {
		s.logger.Info("pipeline worker pool stopped")
	}
	return nil
}

func (s *service) worker(workerID int) {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopChan:
			return
		case event := <-s.queue:
			metrics.QueueDepth.Dec()
			s.process(event, workerID)
		}
	}
}

// process runs steps 3-6 for one reserved event and writes the terminal
// DeliveryRecord exactly once, after the outcome is known. The context
// derives from the process, not the original request: a dropped inbound
// connection must not abort the chat post.
func (s *service) process(event *entities.WebhookEvent, workerID int) {
	ctx, cancel := jobcontext.Begin(context.Background(), event.ID, workerID, s.cfg.Pipeline.JobTimeout)
	defer cancel()

	outcome := s.run(ctx, event)

	recordCtx, recordCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer recordCancel()
	if err := s.ledger.Record(recordCtx, event.ID, outcome); err != nil && s.logger != nil {
		s.logger.Error("failed to record delivery outcome",
			zap.String("event_id", event.ID),
			zap.String("outcome", string(outcome)),
			zap.Error(err),
		)
	}

	metrics.RecordOutcome(string(outcome))

	if s.logger != nil {
		s.logger.Info("event processing finished",
			zap.String("event_id", event.ID),
			zap.String("outcome", string(outcome)),
			zap.Int("worker_id", jobcontext.WorkerID(ctx)),
			zap.Duration("elapsed", jobcontext.Elapsed(ctx)),
		)
	}
}

func (s *service) run(ctx context.Context, event *entities.WebhookEvent) entities.DeliveryOutcome {
	transcript, err := s.extractor.Extract(event.Body)
	if err != nil {
		// Authenticated but unusable payload: a no-op, not a failure.
		// Failing here would only trigger sender-side redelivery of an
		// event that can never succeed.
		if s.logger != nil {
			s.logger.Warn("event skipped",
				zap.String("event_id", event.ID),
				zap.String("error_kind", errorKind(err)),
				zap.Error(err),
			)
		}
		return entities.OutcomeSkipped
	}

	start := time.Now()
	summary, err := s.summarizer.Summarize(ctx, transcript)
	metrics.ObserveStage("summarize", time.Since(start).Seconds())
	if err != nil {
		s.logFailure(event.ID, err)
		return entities.OutcomeFailed
	}

	msg := s.formatter.Format(transcript.Title, summary)

	start = time.Now()
	err = s.publisher.Publish(ctx, msg)
	metrics.ObserveStage("publish", time.Since(start).Seconds())
	if err != nil {
		s.logFailure(event.ID, err)
		return entities.OutcomeFailed
	}

	if s.logger != nil {
		s.logger.Info("summary delivered",
			zap.String("event_id", event.ID),
			zap.String("meeting_id", transcript.MeetingID),
			zap.String("channel", msg.Channel),
		)
	}
	return entities.OutcomeDelivered
}

// logFailure surfaces a downstream failure through logs. The webhook
// sender already got its 200-class response; operators see this.
func (s *service) logFailure(eventID string, err error) {
	if s.logger == nil {
		return
	}
	s.logger.Error("event processing failed",
		zap.String("event_id", eventID),
		zap.String("error_kind", errorKind(err)),
		zap.Error(err),
	)
}
