package entities

import (
	"fmt"
	"strings"
)

// Segment represents one speaker-attributed utterance with its start
// offset in seconds.
type Segment struct {
	Speaker   string  `json:"speaker"`
	Text      string  `json:"text"`
	StartTime float64 `json:"start_time"`
}

// MeetingTranscript is the canonical transcript derived from a webhook
// payload. Segment order is preserved exactly as delivered.
type MeetingTranscript struct {
	MeetingID    string    `json:"meeting_id"`
	Title        string    `json:"title"`
	Participants []string  `json:"participants,omitempty"`
	Segments     []Segment `json:"segments"`
	Text         string    `json:"text"`
}

// DefaultTitle is used when the payload carries no meeting title.
const DefaultTitle = "Untitled meeting"

// NewMeetingTranscript assembles a transcript from ordered segments and
// derives the plain-text form, one "Speaker: text" line per segment.
func NewMeetingTranscript(meetingID, title string, participants []string, segments []Segment) *MeetingTranscript {
	if title == "" {
		title = DefaultTitle
	}

	var sb strings.Builder
	for _, seg := range segments {
		speaker := seg.Speaker
		if speaker == "" {
			speaker = "Unknown"
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n", speaker, seg.Text))
	}

	return &MeetingTranscript{
		MeetingID:    meetingID,
		Title:        title,
		Participants: participants,
		Segments:     segments,
		Text:         sb.String(),
	}
}
