package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/johnquangdev/meeting-digest/errors"
	"github.com/johnquangdev/meeting-digest/internal/domain/entities"
	"github.com/johnquangdev/meeting-digest/internal/infrastructure/ledger"
	"github.com/johnquangdev/meeting-digest/pkg/ai"
	"github.com/johnquangdev/meeting-digest/pkg/config"
	"github.com/johnquangdev/meeting-digest/pkg/slack"
)

const testSecret = "test-webhook-secret"

const modelResponse = `{"overview":"The team reviewed the release plan.","decisions":["Ship on Friday"],"action_items":[{"text":"Update the changelog","owner":"Dana"}]}`

// fakeModel returns the queued errors in order, then succeeds with
// modelResponse.
type fakeModel struct {
	mu    sync.Mutex
	calls int
	errs  []error
}

func (f *fakeModel) CreateMessage(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return "", err
	}
	return modelResponse, nil
}

func (f *fakeModel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakePoster records posted messages and returns the queued errors in
// order, then succeeds.
type fakePoster struct {
	mu          sync.Mutex
	calls       int
	errs        []error
	lastChannel string
	lastText    string
}

func (f *fakePoster) PostMessage(ctx context.Context, channel, text, threadTS string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return "", err
	}
	f.lastChannel = channel
	f.lastText = text
	return "1724400000.000100", nil
}

func (f *fakePoster) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testConfig() *config.Config {
	return &config.Config{
		Webhook: config.WebhookConfig{Secret: testSecret},
		Slack: config.SlackConfig{
			DefaultChannel:   "#general",
			MaxMessageLength: 40000,
		},
		Pipeline: config.PipelineConfig{
			Workers:              1,
			QueueSize:            8,
			MaxAttempts:          3,
			BackoffBase:          time.Millisecond,
			JobTimeout:           5 * time.Second,
			TranscriptCharBudget: 48000,
		},
		Redis: config.RedisConfig{LedgerTTL: time.Hour},
	}
}

func newTestService(t *testing.T, cfg *config.Config, model *fakeModel, poster *fakePoster) (*service, ledger.DeliveryLedger) {
	t.Helper()
	dl := ledger.NewMemoryLedger(cfg.Redis.LedgerTTL)
	svc := NewService(
		NewExtractor(),
		NewSummarizer(model, &cfg.Pipeline, nil),
		NewFormatter(&cfg.Slack),
		NewPublisher(poster, &cfg.Pipeline, nil),
		dl,
		cfg,
		nil,
	).(*service)
	return svc, dl
}

func validBody(eventID string) []byte {
	return []byte(fmt.Sprintf(`{
		"eventId": %q,
		"meetingId": "meeting-42",
		"title": "Weekly Sync",
		"participants": ["Alice", {"displayName": "Bob"}],
		"segments": [
			{"speaker": "Alice", "text": "Let's review the release plan.", "start_time": 0.5},
			{"speaker": "Bob", "text": "We ship on Friday.", "start_time": 12.0}
		]
	}`, eventID))
}

func authedEvent(body []byte) *entities.WebhookEvent {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+testSecret)
	return entities.NewWebhookEvent("", headers, body)
}

func TestAcceptRejectsMissingToken(t *testing.T) {
	model := &fakeModel{}
	poster := &fakePoster{}
	svc, dl := newTestService(t, testConfig(), model, poster)

	event := entities.NewWebhookEvent("", http.Header{}, validBody("evt-1"))
	_, err := svc.Accept(context.Background(), event)

	var appErr apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusUnauthorized, appErr.HTTPCode)

	// Nothing downstream ran and nothing was reserved.
	assert.Zero(t, model.callCount())
	assert.Zero(t, poster.callCount())
	rec, err := dl.Get(context.Background(), "evt-1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestAcceptRejectsWrongToken(t *testing.T) {
	svc, _ := newTestService(t, testConfig(), &fakeModel{}, &fakePoster{})

	headers := http.Header{}
	headers.Set("Authorization", "Bearer not-the-secret")
	event := entities.NewWebhookEvent("", headers, validBody("evt-1"))

	_, err := svc.Accept(context.Background(), event)

	var appErr apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusUnauthorized, appErr.HTTPCode)
}

func TestAcceptRejectsMalformedJSON(t *testing.T) {
	svc, _ := newTestService(t, testConfig(), &fakeModel{}, &fakePoster{})

	_, err := svc.Accept(context.Background(), authedEvent([]byte("{not json")))

	var appErr apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPCode)
}

func TestAcceptDerivesEventIDFromPayload(t *testing.T) {
	svc, _ := newTestService(t, testConfig(), &fakeModel{}, &fakePoster{})

	result, err := svc.Accept(context.Background(), authedEvent(validBody("evt-7")))
	require.NoError(t, err)
	assert.Equal(t, "evt-7", result.EventID)
	assert.False(t, result.Duplicate)
}

func TestAcceptFallsBackToMeetingID(t *testing.T) {
	svc, _ := newTestService(t, testConfig(), &fakeModel{}, &fakePoster{})

	body := []byte(`{"meetingId": "meeting-9", "segments": [{"speaker": "A", "text": "hi"}]}`)
	result, err := svc.Accept(context.Background(), authedEvent(body))
	require.NoError(t, err)
	assert.Equal(t, "meeting-9", result.EventID)
}

func TestRedeliveryPublishesExactlyOnce(t *testing.T) {
	model := &fakeModel{}
	poster := &fakePoster{}
	svc, dl := newTestService(t, testConfig(), model, poster)

	first, err := svc.Accept(context.Background(), authedEvent(validBody("evt-dup")))
	require.NoError(t, err)
	require.False(t, first.Duplicate)

	// Process the queued event to its terminal outcome.
	queued := <-svc.queue
	svc.process(queued, 0)

	rec, err := dl.Get(context.Background(), "evt-dup")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, entities.OutcomeDelivered, rec.Outcome)

	// Redelivery of the same event id is acknowledged without work.
	second, err := svc.Accept(context.Background(), authedEvent(validBody("evt-dup")))
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, "evt-dup", second.EventID)

	assert.Equal(t, 1, model.callCount())
	assert.Equal(t, 1, poster.callCount())
}

func TestDuplicateWhileStillPending(t *testing.T) {
	poster := &fakePoster{}
	svc, _ := newTestService(t, testConfig(), &fakeModel{}, poster)

	first, err := svc.Accept(context.Background(), authedEvent(validBody("evt-race")))
	require.NoError(t, err)
	require.False(t, first.Duplicate)

	// Second delivery arrives before the first finishes processing.
	second, err := svc.Accept(context.Background(), authedEvent(validBody("evt-race")))
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Zero(t, poster.callCount())
}

func TestProcessSkipsEventWithoutUsableSegments(t *testing.T) {
	model := &fakeModel{}
	poster := &fakePoster{}
	svc, dl := newTestService(t, testConfig(), model, poster)

	body := []byte(`{
		"eventId": "evt-empty",
		"meetingId": "meeting-43",
		"segments": [{"speaker": "A", "text": "   "}, {"speaker": "B", "text": ""}]
	}`)
	event := authedEvent(body)
	_, err := svc.Accept(context.Background(), event)
	require.NoError(t, err)

	queued := <-svc.queue
	svc.process(queued, 0)

	rec, err := dl.Get(context.Background(), "evt-empty")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, entities.OutcomeSkipped, rec.Outcome)

	assert.Zero(t, model.callCount())
	assert.Zero(t, poster.callCount())
}

func TestProcessRetriesTransientModelFailures(t *testing.T) {
	model := &fakeModel{errs: []error{
		&ai.APIError{StatusCode: http.StatusTooManyRequests},
		&ai.APIError{StatusCode: http.StatusServiceUnavailable},
	}}
	poster := &fakePoster{}
	svc, dl := newTestService(t, testConfig(), model, poster)

	event := authedEvent(validBody("evt-retry"))
	_, err := svc.Accept(context.Background(), event)
	require.NoError(t, err)

	queued := <-svc.queue
	svc.process(queued, 0)

	rec, err := dl.Get(context.Background(), "evt-retry")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, entities.OutcomeDelivered, rec.Outcome)

	assert.Equal(t, 3, model.callCount())
	assert.Equal(t, 1, poster.callCount())
}

func TestProcessFailsAfterRetryExhaustion(t *testing.T) {
	model := &fakeModel{errs: []error{
		&ai.APIError{StatusCode: http.StatusTooManyRequests},
		&ai.APIError{StatusCode: http.StatusTooManyRequests},
		&ai.APIError{StatusCode: http.StatusTooManyRequests},
	}}
	poster := &fakePoster{}
	svc, dl := newTestService(t, testConfig(), model, poster)

	event := authedEvent(validBody("evt-exhausted"))
	_, err := svc.Accept(context.Background(), event)
	require.NoError(t, err)

	queued := <-svc.queue
	svc.process(queued, 0)

	rec, err := dl.Get(context.Background(), "evt-exhausted")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, entities.OutcomeFailed, rec.Outcome)

	// MaxAttempts calls, then the event failed without touching chat.
	assert.Equal(t, 3, model.callCount())
	assert.Zero(t, poster.callCount())
}

func TestProcessDoesNotRetryPermanentPublishError(t *testing.T) {
	poster := &fakePoster{errs: []error{
		&slack.APIError{StatusCode: http.StatusOK, Code: "channel_not_found"},
	}}
	svc, dl := newTestService(t, testConfig(), &fakeModel{}, poster)

	event := authedEvent(validBody("evt-badchan"))
	_, err := svc.Accept(context.Background(), event)
	require.NoError(t, err)

	queued := <-svc.queue
	svc.process(queued, 0)

	rec, err := dl.Get(context.Background(), "evt-badchan")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, entities.OutcomeFailed, rec.Outcome)
	assert.Equal(t, 1, poster.callCount())
}

func TestWorkerPoolProcessesQueuedEvents(t *testing.T) {
	model := &fakeModel{}
	poster := &fakePoster{}
	svc, dl := newTestService(t, testConfig(), model, poster)

	require.NoError(t, svc.Start(2))
	defer func() { require.NoError(t, svc.Stop()) }()

	_, err := svc.Accept(context.Background(), authedEvent(validBody("evt-pool")))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		rec, err := dl.Get(context.Background(), "evt-pool")
		return err == nil && rec != nil && rec.Outcome.Terminal()
	}, 5*time.Second, 10*time.Millisecond)

	rec, err := dl.Get(context.Background(), "evt-pool")
	require.NoError(t, err)
	assert.Equal(t, entities.OutcomeDelivered, rec.Outcome)
	assert.Equal(t, "#general", poster.lastChannel)
}

func TestStartTwiceFails(t *testing.T) {
	svc, _ := newTestService(t, testConfig(), &fakeModel{}, &fakePoster{})

	require.NoError(t, svc.Start(1))
	assert.Error(t, svc.Start(1))
	require.NoError(t, svc.Stop())
	assert.Error(t, svc.Stop())
}
