package openai

import (
	"context"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// fakeModel is an llms.Model returning canned responses and recording calls.
type fakeModel struct {
	mu       sync.Mutex
	response string
	err      error
	calls    []llms.CallOptions
	messages [][]llms.MessageContent
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, o := range options {
		o(&opts)
	}

	f.mu.Lock()
	f.calls = append(f.calls, opts)
	f.messages = append(f.messages, messages)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.response}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func (f *fakeModel) lastOptions() llms.CallOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func (f *fakeModel) lastUserText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.messages[len(f.messages)-1]
	for _, m := range msgs {
		if m.Role == llms.ChatMessageTypeHuman {
			if tp, ok := m.Parts[0].(llms.TextContent); ok {
				return tp.Text
			}
		}
	}
	return ""
}

// fakeEmbeddings is an embeddings.Embedder returning fixed-size vectors.
type fakeEmbeddings struct {
	dim   int
	err   error
	count int
}

func (f *fakeEmbeddings) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dim)
		out[i][0] = float32(i + 1)
	}
	f.count += len(texts)
	return out, nil
}

func (f *fakeEmbeddings) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	v, err := f.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}
