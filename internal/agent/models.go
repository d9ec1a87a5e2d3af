// internal/agent/models.go
package agent

import (
	"github.com/google/uuid"

	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/conversation"
	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/internal/snapshot"
)

// State is the navigation loop's current phase.
type State string

const (
	StateAwaitingUserInput State = "AWAITING_USER_INPUT" // Waiting for the next question.
	StateNavigating        State = "NAVIGATING"          // Loading the pending URL.
	StateAwaitingModel     State = "AWAITING_MODEL_TURN" // Sending the transcript to the model.
	StateClickHandling     State = "CLICK_HANDLING"      // Resolving and clicking a labeled element.
	StateNavigateHandling  State = "NAVIGATE_HANDLING"   // Queuing a URL requested by the model.
	StateDone              State = "DONE"                // The model answered in prose.
)

// ActionType enumerates what a model reply asks for.
type ActionType string

const (
	ActionAnswer   ActionType = "ANSWER"
	ActionNavigate ActionType = "NAVIGATE"
	ActionClick    ActionType = "CLICK"
)

// Action is a parsed model reply. Only the field matching Type is set.
type Action struct {
	Type  ActionType `json:"type"`
	URL   string     `json:"url,omitempty"`
	Label string     `json:"label,omitempty"`
	Text  string     `json:"text,omitempty"`
}

// Session is the mutable state of one chat with the navigator.
type Session struct {
	ID           string
	Conversation *conversation.Conversation
	State        State

	// PendingURL is the URL to load on the next Navigating step.
	PendingURL string
	// SnapshotPending is set when Snapshot has not yet been shown to the model.
	SnapshotPending bool
	Snapshot        *snapshot.Artifact

	// LastAction is the most recently parsed model reply.
	LastAction Action
}

// NewSession starts a session whose transcript opens with systemPrompt.
func NewSession(systemPrompt string) *Session {
	return &Session{
		ID:           uuid.NewString(),
		Conversation: conversation.New(systemPrompt),
		State:        StateAwaitingUserInput,
	}
}
