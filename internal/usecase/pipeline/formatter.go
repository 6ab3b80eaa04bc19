package pipeline

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/johnquangdev/meeting-digest/internal/domain/entities"
	"github.com/johnquangdev/meeting-digest/pkg/config"
)

const truncationMark = "…"

// Formatter renders structured minutes into chat markup and resolves
// the target channel for the meeting.
type Formatter struct {
	channels  config.ChannelMap
	defaultCh string
	maxLength int
}

// NewFormatter creates a Formatter from the chat platform config.
func NewFormatter(cfg *config.SlackConfig) *Formatter {
	return &Formatter{
		channels:  cfg.ChannelMap,
		defaultCh: cfg.DefaultChannel,
		maxLength: cfg.MaxMessageLength,
	}
}

// Format renders the fixed layout: title line, overview paragraph,
// decisions bullets, action-item bullets with owner annotation. The
// result always fits the platform's length ceiling; when it does not,
// the overview is truncated first, then whole decision bullets dropped
// from the end, with the action-items section preserved byte-for-byte
// as the highest-priority content.
func (f *Formatter) Format(title string, summary *entities.SummaryResult) entities.ChatMessage {
	overview := summary.Overview
	decisions := append([]string(nil), summary.Decisions...)
	actions := append([]entities.ActionItem(nil), summary.ActionItems...)

	text := render(title, overview, decisions, actions)

	if len(text) > f.maxLength && overview != "" {
		keep := len(overview) - (len(text) - f.maxLength) - len(truncationMark)
		if keep > 0 {
			overview = truncateToRune(overview, keep) + truncationMark
		} else {
			overview = ""
		}
		text = render(title, overview, decisions, actions)
	}

	for len(text) > f.maxLength && len(decisions) > 0 {
		decisions = decisions[:len(decisions)-1]
		text = render(title, overview, decisions, actions)
	}

	// Last resort when the action items alone exceed the ceiling: drop
	// whole trailing items, never cut one mid-bullet.
	for len(text) > f.maxLength && len(actions) > 1 {
		actions = actions[:len(actions)-1]
		text = render(title, overview, decisions, actions)
	}

	return entities.ChatMessage{
		Channel: f.ResolveChannel(title),
		Text:    text,
	}
}

// ResolveChannel maps a meeting title to its channel: exact match, then
// substring match in either direction, then the default channel.
func (f *Formatter) ResolveChannel(title string) string {
	if ch, ok := f.channels[title]; ok {
		return ch
	}
	for key, ch := range f.channels {
		if strings.Contains(title, key) || strings.Contains(key, title) {
			return ch
		}
	}
	return f.defaultCh
}

// render assembles the message sections, skipping empty ones.
func render(title, overview string, decisions []string, actions []entities.ActionItem) string {
	sections := []string{fmt.Sprintf("*%s*", title)}

	if overview != "" {
		sections = append(sections, "*Summary*\n"+overview)
	}

	if len(decisions) > 0 {
		var sb strings.Builder
		sb.WriteString("*Decisions*")
		for _, d := range decisions {
			sb.WriteString("\n• ")
			sb.WriteString(d)
		}
		sections = append(sections, sb.String())
	}

	if len(actions) > 0 {
		var sb strings.Builder
		sb.WriteString("*Action Items*")
		for _, a := range actions {
			sb.WriteString("\n• ")
			sb.WriteString(a.Text)
			if a.Owner != "" {
				sb.WriteString(fmt.Sprintf(" (owner: %s)", a.Owner))
			}
		}
		sections = append(sections, sb.String())
	}

	return strings.Join(sections, "\n\n")
}

// truncateToRune cuts s to at most n bytes on a rune boundary.
func truncateToRune(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := s[:n]
	for len(cut) > 0 {
		if r, size := utf8.DecodeLastRuneInString(cut); r != utf8.RuneError || size != 1 {
			break
		}
		cut = cut[:len(cut)-1]
	}
	return cut
}
