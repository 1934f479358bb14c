package openai

import (
	"context"

	"github.com/poiesic/transcriptdb/ai"
	"github.com/tmc/langchaingo/llms"
)

// FieldExtractor implements ai.FieldExtractor using an OpenAI-compatible chat API in JSON mode.
type FieldExtractor struct {
	chat *chat
}

// ExtractFields extracts the company and interviewee from a transcript excerpt.
// Missing keys decode as empty strings.
func (e *FieldExtractor) ExtractFields(ctx context.Context, text string) (*ai.ExtractedFields, error) {
	response, err := e.chat.complete(ctx, extractSystemPrompt, buildExtractPrompt(text), llms.WithJSONMode())
	if err != nil {
		return nil, err
	}

	var fields ai.ExtractedFields
	if err := decodeJSON(response, &fields); err != nil {
		e.chat.logger.Warn("error parsing extraction response", "response", response, "err", err)
		return nil, err
	}

	e.chat.logger.Debug("extracted fields", "company", fields.Company, "interviewee", fields.Interviewee)
	return &fields, nil
}
