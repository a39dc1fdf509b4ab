// Package provider wraps the remote generative-text and image-search
// services behind small request/response interfaces.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/starford/ansuz/internal/apperr"
)

// Message roles understood by the generative-text provider.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one role-tagged prompt message.
type Message struct {
	Role    string
	Content string
}

// Request describes a single generation call: model, ordered messages, and
// the token/temperature budget with a per-call deadline.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// TextGenerator produces text from a prompt request.
type TextGenerator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// OpenAI is a TextGenerator backed by an OpenAI-compatible endpoint.
type OpenAI struct {
	llm llms.Model
}

var _ TextGenerator = (*OpenAI)(nil)

// NewOpenAI creates a client for the given API key and base URL. An empty
// baseURL uses the provider default.
func NewOpenAI(apiKey, baseURL string) (*OpenAI, error) {
	opts := []openai.Option{openai.WithToken(apiKey)}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return &OpenAI{llm: model}, nil
}

// Generate runs one chat completion and returns the generated text.
// Provider failures are surfaced as apperr.ProviderError.
func (o *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	messages := make([]llms.MessageContent, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := llms.ChatMessageTypeHuman
		if m.Role == RoleSystem {
			role = llms.ChatMessageTypeSystem
		}
		messages = append(messages, llms.TextParts(role, m.Content))
	}

	resp, err := o.llm.GenerateContent(ctx, messages,
		llms.WithModel(req.Model),
		llms.WithTemperature(req.Temperature),
		llms.WithMaxTokens(req.MaxTokens),
	)
	if err != nil {
		return "", apperr.Provider("text-generation", err)
	}
	if len(resp.Choices) == 0 {
		return "", apperr.Provider("text-generation", fmt.Errorf("no response choices"))
	}
	return resp.Choices[0].Content, nil
}
