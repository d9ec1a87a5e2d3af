// Package conversation holds the append-only transcript exchanged with the model.
package conversation

import (
	"strings"

	"github.com/Ubayed-Bin-Sufian/gpt4v-browsing/api/schemas"
)

// Conversation is an ordered, append-only transcript. It starts with the
// system turn; every later turn is appended and nothing is ever removed.
// A Conversation is owned by a single goroutine.
type Conversation struct {
	turns []schemas.Turn
}

// New starts a transcript with the given system prompt.
func New(systemPrompt string) *Conversation {
	return &Conversation{
		turns: []schemas.Turn{{Role: schemas.RoleSystem, Text: systemPrompt}},
	}
}

// AppendUser records a message typed by the user.
func (c *Conversation) AppendUser(text string) {
	c.append(schemas.Turn{Role: schemas.RoleUser, Text: text})
}

// AppendObservation records feedback from the tool side, such as a failed
// click. Observations are sent with the user role.
func (c *Conversation) AppendObservation(text string) {
	c.append(schemas.Turn{Role: schemas.RoleUser, Text: text})
}

// AppendImage records a user turn carrying a snapshot and its caption.
func (c *Conversation) AppendImage(img schemas.Image, caption string) {
	c.append(schemas.Turn{Role: schemas.RoleUser, Text: caption, Image: &img})
}

// AppendAssistant records a model reply.
func (c *Conversation) AppendAssistant(text string) {
	c.append(schemas.Turn{Role: schemas.RoleAssistant, Text: text})
}

func (c *Conversation) append(t schemas.Turn) {
	c.turns = append(c.turns, t)
}

// Len returns the number of turns, including the system turn.
func (c *Conversation) Len() int { return len(c.turns) }

// Turns returns a copy of the transcript.
func (c *Conversation) Turns() []schemas.Turn {
	out := make([]schemas.Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Last returns the most recent turn.
func (c *Conversation) Last() schemas.Turn {
	return c.turns[len(c.turns)-1]
}

// Request builds the model request for the whole transcript. System turns are
// folded into the system prompt; all other turns keep their order.
func (c *Conversation) Request(opts schemas.GenerationOptions) schemas.GenerationRequest {
	var system []string
	turns := make([]schemas.Turn, 0, len(c.turns))
	for _, t := range c.turns {
		if t.Role == schemas.RoleSystem {
			system = append(system, t.Text)
			continue
		}
		turns = append(turns, t)
	}
	return schemas.GenerationRequest{
		SystemPrompt: strings.Join(system, "\n\n"),
		Turns:        turns,
		Options:      opts,
	}
}
