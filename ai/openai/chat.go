package openai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/transcriptdb/ai"
	"github.com/tmc/langchaingo/llms"
)

// chat sends system/user message pairs to a chat model through the
// provider's shared limiter.
type chat struct {
	client      llms.Model
	limiter     *limiter
	temperature float64
	logger      *slog.Logger
}

// complete returns the trimmed text of the first choice.
func (c *chat) complete(ctx context.Context, system, user string, opts ...llms.CallOption) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(system)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(user)},
		},
	}

	callOpts := append([]llms.CallOption{llms.WithTemperature(c.temperature)}, opts...)
	response, err := c.client.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		c.logger.Debug("failed to generate content", "err", err)
		return "", err
	}
	if response == nil || len(response.Choices) < 1 {
		return "", ai.ErrEmptyResponse
	}

	text := strings.TrimSpace(response.Choices[0].Content)
	if text == "" {
		return "", ai.ErrEmptyResponse
	}
	return text, nil
}
