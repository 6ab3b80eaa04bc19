package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/johnquangdev/meeting-digest/internal/domain/entities"
)

// Parser handles parsing and validation of model responses.
type Parser struct{}

// NewParser creates a new Parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// rawSummary mirrors the JSON the prompt asks the model to return.
// Pointer fields distinguish "present but empty" from "absent": absent
// signals a parse failure.
type rawSummary struct {
	Overview    *string                `json:"overview"`
	Decisions   *[]string              `json:"decisions"`
	ActionItems *[]entities.ActionItem `json:"action_items"`
}

// ParseSummaryResponse parses the model's JSON response into a
// SummaryResult. All three fields must be present; any may be empty.
func (p *Parser) ParseSummaryResponse(content string) (*entities.SummaryResult, error) {
	content = extractJSON(content)

	var raw rawSummary
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if raw.Overview == nil {
		return nil, fmt.Errorf("missing overview in response")
	}
	if raw.Decisions == nil {
		return nil, fmt.Errorf("missing decisions in response")
	}
	if raw.ActionItems == nil {
		return nil, fmt.Errorf("missing action_items in response")
	}

	result := &entities.SummaryResult{
		Overview:    *raw.Overview,
		Decisions:   *raw.Decisions,
		ActionItems: *raw.ActionItems,
	}
	result.Normalize()
	return result, nil
}

// extractJSON extracts JSON content from markdown code blocks or plain text.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	// Check if wrapped in markdown code block
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	}

	return strings.TrimSpace(content)
}
