package ledger

import (
	"context"

	"github.com/johnquangdev/meeting-digest/internal/domain/entities"
)

// DeliveryLedger records which external event ids have already been
// processed, enforcing at-most-one-publish-per-event under at-least-once
// webhook redelivery.
//
// Reserve is an atomic check-and-reserve: it returns true exactly once
// per event id, marking the id pending. Concurrent reserves for the same
// id serialize so only one caller wins. Record later updates the
// reservation to its terminal outcome; it is called exactly once per
// event, after the outcome is known.
type DeliveryLedger interface {
	Reserve(ctx context.Context, eventID string) (bool, error)
	Record(ctx context.Context, eventID string, outcome entities.DeliveryOutcome) error
	Get(ctx context.Context, eventID string) (*entities.DeliveryRecord, error)
}
