package entities

// ActionItem is one follow-up extracted from the meeting, with an
// optional owner.
type ActionItem struct {
	Text  string `json:"text"`
	Owner string `json:"owner,omitempty"`
}

// SummaryResult holds the structured minutes produced by the model.
// All three fields are present after a successful parse; any of them may
// be empty but never nil.
type SummaryResult struct {
	Overview    string       `json:"overview"`
	Decisions   []string     `json:"decisions"`
	ActionItems []ActionItem `json:"action_items"`
}

// Normalize replaces nil slices with empty ones so callers can range
// without nil checks.
func (s *SummaryResult) Normalize() {
	if s.Decisions == nil {
		s.Decisions = make([]string, 0)
	}
	if s.ActionItems == nil {
		s.ActionItems = make([]ActionItem, 0)
	}
}
