package pipeline

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/johnquangdev/meeting-digest/internal/adapter/dto"
	"github.com/johnquangdev/meeting-digest/internal/domain/entities"
)

// Extractor normalizes a raw event body into a canonical transcript.
type Extractor struct {
	validate *validator.Validate
}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{validate: validator.New()}
}

// Extract walks the expected payload schema and builds a
// MeetingTranscript. Malformed segments (missing text) are skipped
// individually; an event with no usable segments at all fails with an
// ExtractionError.
func (x *Extractor) Extract(body []byte) (*entities.MeetingTranscript, error) {
	var payload dto.FirefliesEvent
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &ExtractionError{Reason: "body is not valid JSON"}
	}

	if err := x.validate.Struct(&payload); err != nil {
		return nil, &ExtractionError{Reason: "missing meeting id"}
	}

	segments := make([]entities.Segment, 0, len(payload.Segments))
	for _, seg := range payload.Segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		segments = append(segments, entities.Segment{
			Speaker:   seg.Speaker,
			Text:      seg.Text,
			StartTime: seg.StartTime,
		})
	}

	if len(segments) == 0 {
		return nil, &ExtractionError{Reason: "no usable transcript segments"}
	}

	participants := make([]string, 0, len(payload.Participants))
	for _, p := range payload.Participants {
		if p.Name != "" {
			participants = append(participants, p.Name)
		}
	}

	return entities.NewMeetingTranscript(payload.MeetingID, payload.Title, participants, segments), nil
}
