package ai

import "context"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one prior exchange entry, oldest first in a history slice.
type Turn struct {
	Role    string
	Content string
}

// Prompt carries everything a provider needs for one generation.
type Prompt struct {
	Model        string
	SystemPrompt string
	History      []Turn
	UserText     string
}

// Provider streams a model response. Implementations invoke onChunk
// once per output increment, in order, and stop when onChunk returns
// an error or ctx is cancelled. Accumulation is the caller's job;
// providers only deliver increments.
type Provider interface {
	StreamGenerate(ctx context.Context, prompt Prompt, onChunk func(chunk string) error) error
}
