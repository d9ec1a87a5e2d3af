// File: api/schemas/interfaces.go
package schemas

import "context"

// -- LLM Client Schemas & Interface --

// GenerationOptions controls sampling for a single model call.
type GenerationOptions struct {
	Temperature float64 `json:"temperature"` // Controls randomness. Lower is more deterministic.
	MaxTokens   int     `json:"max_tokens"`  // Upper bound on reply length.
}

// GenerationRequest is the full conversation handed to the model on every turn:
// a system prompt followed by the ordered transcript.
type GenerationRequest struct {
	SystemPrompt string            `json:"system_prompt"`
	Turns        []Turn            `json:"turns"`
	Options      GenerationOptions `json:"options"`
}

// LLMClient abstracts a multimodal chat model provider.
type LLMClient interface {
	// Generate returns the assistant's text reply for the given conversation.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	// Close releases any resources held by the client.
	Close() error
}
