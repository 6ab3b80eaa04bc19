package jobcontext

import (
	"context"
	"time"
)

type contextKey string

var (
	keyEventID   contextKey = "event_id"
	keyWorkerID  contextKey = "worker_id"
	keyStartTime contextKey = "start_time"
)

// Begin derives a bounded context for processing one webhook event.
// The parent is the process context, never the inbound request context:
// processing must survive the original connection being dropped.
func Begin(parent context.Context, eventID string, workerID int, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	ctx = context.WithValue(ctx, keyEventID, eventID)
	ctx = context.WithValue(ctx, keyWorkerID, workerID)
	ctx = context.WithValue(ctx, keyStartTime, time.Now())
	return ctx, cancel
}

// EventID extracts the event id from a job context.
func EventID(ctx context.Context) string {
	id, _ := ctx.Value(keyEventID).(string)
	return id
}

// WorkerID extracts the worker id from a job context, or -1.
func WorkerID(ctx context.Context) int {
	id, ok := ctx.Value(keyWorkerID).(int)
	if !ok {
		return -1
	}
	return id
}

// StartTime extracts the job start time from a job context.
func StartTime(ctx context.Context) (time.Time, bool) {
	ts, ok := ctx.Value(keyStartTime).(time.Time)
	return ts, ok
}

// Elapsed returns the time spent processing so far, or zero when the
// context carries no job metadata.
func Elapsed(ctx context.Context) time.Duration {
	ts, ok := StartTime(ctx)
	if !ok {
		return 0
	}
	return time.Since(ts)
}
