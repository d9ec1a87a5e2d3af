package agent

import (
	"strings"

	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/dom"
)

const (
	clickMarker = `{"click": "`
	urlMarker   = `{"url": "`
	markerEnd   = `"}`
)

// Parser turns a model reply into an Action.
type Parser interface {
	Parse(reply string) Action
}

// MarkerParser recognizes the literal {"click": "..."} and {"url": "..."}
// markers anywhere in a reply. Surrounding prose is ignored and a click wins
// when both markers are present.
type MarkerParser struct{}

// Parse implements Parser.
func (MarkerParser) Parse(reply string) Action {
	if target, ok := extractTarget(reply, clickMarker); ok {
		return Action{Type: ActionClick, Label: dom.Sanitize(target)}
	}
	if target, ok := extractTarget(reply, urlMarker); ok {
		return Action{Type: ActionNavigate, URL: strings.TrimSpace(target)}
	}
	return Action{Type: ActionAnswer, Text: reply}
}

// extractTarget returns the text between the first marker and the next
// closing `"}`. The target also stops at a repeated marker.
func extractTarget(reply, marker string) (string, bool) {
	_, rest, ok := strings.Cut(reply, marker)
	if !ok {
		return "", false
	}
	if i := strings.Index(rest, marker); i >= 0 {
		rest = rest[:i]
	}
	if i := strings.Index(rest, markerEnd); i >= 0 {
		rest = rest[:i]
	}
	return rest, true
}
