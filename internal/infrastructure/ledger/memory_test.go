package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-digest/internal/domain/entities"
)

func TestReserveOncePerEventID(t *testing.T) {
	l := NewMemoryLedger(time.Hour)
	ctx := context.Background()

	ok, err := l.Reserve(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Reserve(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, ok)

	// A different id is unaffected.
	ok, err = l.Reserve(ctx, "evt-2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReserveThenRecordOutcome(t *testing.T) {
	l := NewMemoryLedger(time.Hour)
	ctx := context.Background()

	_, err := l.Reserve(ctx, "evt-1")
	require.NoError(t, err)

	rec, err := l.Get(ctx, "evt-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, entities.OutcomePending, rec.Outcome)
	assert.False(t, rec.Outcome.Terminal())

	require.NoError(t, l.Record(ctx, "evt-1", entities.OutcomeDelivered))

	rec, err = l.Get(ctx, "evt-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, entities.OutcomeDelivered, rec.Outcome)
	assert.True(t, rec.Outcome.Terminal())
}

func TestGetUnknownEventID(t *testing.T) {
	l := NewMemoryLedger(time.Hour)

	rec, err := l.Get(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestExpiredEntryCanBeReservedAgain(t *testing.T) {
	l := NewMemoryLedger(10 * time.Millisecond)
	ctx := context.Background()

	ok, err := l.Reserve(ctx, "evt-1")
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)

	rec, err := l.Get(ctx, "evt-1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	ok, err = l.Reserve(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConcurrentReserveSingleWinner(t *testing.T) {
	l := NewMemoryLedger(time.Hour)
	ctx := context.Background()

	const goroutines = 50
	var wg sync.WaitGroup
	wins := make(chan struct{}, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := l.Reserve(ctx, "evt-contended")
			if err == nil && ok {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	assert.Equal(t, 1, count)
}
