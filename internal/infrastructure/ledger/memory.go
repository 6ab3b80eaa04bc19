package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/johnquangdev/meeting-digest/internal/domain/entities"
)

// MemoryLedger is an in-process DeliveryLedger with expiring entries.
// Persistence across restarts is out of scope; entries expire so the map
// does not grow unbounded under long uptimes.
type MemoryLedger struct {
	mu    sync.Mutex
	items map[string]*memoryItem
	ttl   time.Duration
}

type memoryItem struct {
	record     entities.DeliveryRecord
	expireTime time.Time
}

// NewMemoryLedger creates an in-memory ledger whose entries expire after ttl.
func NewMemoryLedger(ttl time.Duration) *MemoryLedger {
	l := &MemoryLedger{
		items: make(map[string]*memoryItem),
		ttl:   ttl,
	}

	// Cleanup goroutine to remove expired items
	go l.cleanupExpired()

	return l
}

// Reserve marks the event id pending if it has not been seen yet.
// Holding the mutex across check and insert makes the sequence atomic:
// two concurrent reserves for the same id cannot both succeed.
func (l *MemoryLedger) Reserve(_ context.Context, eventID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if item, exists := l.items[eventID]; exists && time.Now().Before(item.expireTime) {
		return false, nil
	}

	l.items[eventID] = &memoryItem{
		record: entities.DeliveryRecord{
			EventID:    eventID,
			Outcome:    entities.OutcomePending,
			RecordedAt: time.Now(),
		},
		expireTime: time.Now().Add(l.ttl),
	}
	return true, nil
}

// Record updates the reservation to its terminal outcome.
func (l *MemoryLedger) Record(_ context.Context, eventID string, outcome entities.DeliveryOutcome) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items[eventID] = &memoryItem{
		record: entities.DeliveryRecord{
			EventID:    eventID,
			Outcome:    outcome,
			RecordedAt: time.Now(),
		},
		expireTime: time.Now().Add(l.ttl),
	}
	return nil
}

// Get returns the record for an event id, or nil when absent or expired.
func (l *MemoryLedger) Get(_ context.Context, eventID string) (*entities.DeliveryRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	item, exists := l.items[eventID]
	if !exists || time.Now().After(item.expireTime) {
		return nil, nil
	}
	rec := item.record
	return &rec, nil
}

// cleanupExpired periodically removes expired items.
func (l *MemoryLedger) cleanupExpired() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for key, item := range l.items {
			if now.After(item.expireTime) {
				delete(l.items, key)
			}
		}
		l.mu.Unlock()
	}
}
