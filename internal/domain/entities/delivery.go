package entities

import "time"

// DeliveryOutcome is the terminal state of one webhook event.
type DeliveryOutcome string

const (
	// OutcomePending marks an event that has been reserved but not yet
	// finished processing.
	OutcomePending DeliveryOutcome = "pending"
	// OutcomeDelivered means the summary was posted to the chat platform.
	OutcomeDelivered DeliveryOutcome = "delivered"
	// OutcomeSkipped means the event was authenticated but carried no
	// usable transcript, and was dropped as a no-op.
	OutcomeSkipped DeliveryOutcome = "skipped"
	// OutcomeFailed means summarization or publishing failed after the
	// retry policy was exhausted.
	OutcomeFailed DeliveryOutcome = "failed"
)

// Terminal reports whether the outcome ends processing for the event.
func (o DeliveryOutcome) Terminal() bool {
	return o == OutcomeDelivered || o == OutcomeSkipped || o == OutcomeFailed
}

// DeliveryRecord tracks the processing state of one external event id.
type DeliveryRecord struct {
	EventID    string          `json:"event_id"`
	Outcome    DeliveryOutcome `json:"outcome"`
	RecordedAt time.Time       `json:"recorded_at"`
}
