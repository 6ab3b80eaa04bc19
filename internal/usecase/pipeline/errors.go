package pipeline

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a pipeline failure for retry decisions and logs.
type ErrorKind string

const (
	// KindTransient failures may succeed on retry (rate limits, 5xx,
	// network timeouts).
	KindTransient ErrorKind = "transient"
	// KindPermanent failures will not self-resolve (bad request, auth).
	KindPermanent ErrorKind = "permanent"
	// KindParse failures mean the model responded but not in the
	// required structure.
	KindParse ErrorKind = "parse"
)

// ExtractionError means the event carried no usable transcript. It is
// terminal but benign: the event is recorded as skipped, not failed.
type ExtractionError struct {
	Reason string
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed: %s", e.Reason)
}

// SummaryError means summary generation failed after the retry policy
// was applied.
type SummaryError struct {
	Kind ErrorKind
	Err  error
}

// Error implements the error interface.
func (e *SummaryError) Error() string {
	return fmt.Sprintf("summary failed (%s): %v", e.Kind, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *SummaryError) Unwrap() error { return e.Err }

// PublishError means delivery to the chat platform failed after the
// retry policy was applied.
type PublishError struct {
	Kind ErrorKind
	Err  error
}

// Error implements the error interface.
func (e *PublishError) Error() string {
	return fmt.Sprintf("publish failed (%s): %v", e.Kind, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *PublishError) Unwrap() error { return e.Err }

// errorKind extracts the kind from a pipeline error for logging.
func errorKind(err error) string {
	var se *SummaryError
	if errors.As(err, &se) {
		return "summary_" + string(se.Kind)
	}
	var pe *PublishError
	if errors.As(err, &pe) {
		return "publish_" + string(pe.Kind)
	}
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return "extraction"
	}
	return "unknown"
}
