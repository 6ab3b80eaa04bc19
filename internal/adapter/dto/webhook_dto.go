package dto

import "encoding/json"

// FirefliesEvent is the expected webhook payload schema. Validation of
// the loosely-typed body happens here at the boundary, not ad hoc in
// later pipeline stages.
type FirefliesEvent struct {
	EventID      string         `json:"eventId"`
	MeetingID    string         `json:"meetingId" validate:"required"`
	Title        string         `json:"title"`
	Participants []Participant  `json:"participants"`
	Segments     []SegmentEntry `json:"segments"`
}

// SegmentEntry is one speaker-tagged transcript segment as delivered.
type SegmentEntry struct {
	Speaker   string  `json:"speaker"`
	Text      string  `json:"text"`
	StartTime float64 `json:"start_time"`
}

// Participant accepts either a bare string or an object; the recording
// service sends both shapes depending on the meeting source.
type Participant struct {
	Name string
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Participant) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.Name = s
		return nil
	}

	var obj struct {
		DisplayName string `json:"displayName"`
		Name        string `json:"name"`
		Email       string `json:"email"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	switch {
	case obj.DisplayName != "":
		p.Name = obj.DisplayName
	case obj.Name != "":
		p.Name = obj.Name
	default:
		p.Name = obj.Email
	}
	return nil
}

// EventEnvelope is the minimal view of the payload the orchestrator
// needs before extraction: just enough to derive an idempotency key.
type EventEnvelope struct {
	EventID   string `json:"eventId"`
	MeetingID string `json:"meetingId"`
}
