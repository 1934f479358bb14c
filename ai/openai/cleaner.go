package openai

import (
	"context"

	"github.com/tmc/langchaingo/llms"
)

// Cleaner implements ai.Cleaner using an OpenAI-compatible chat API.
type Cleaner struct {
	chat      *chat
	maxTokens int
}

// Clean returns the model's normalized version of text.
func (c *Cleaner) Clean(ctx context.Context, text string) (string, error) {
	return c.chat.complete(ctx, cleanSystemPrompt, buildCleanPrompt(text), llms.WithMaxTokens(c.maxTokens))
}
