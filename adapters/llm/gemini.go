package llm

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"google.golang.org/genai"

	"github.com/satriahrh/cocoa-fruit/ollama-chat/domain"
)

const geminiEndpoint = "https://generativelanguage.googleapis.com"

type GeminiClient struct {
	client *genai.Client
}

func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	client, err := genai.NewClient(
		ctx,
		&genai.ClientConfig{
			APIKey:      apiKey,
			Backend:     genai.BackendGeminiAPI,
			HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &GeminiClient{client: client}, nil
}

func (g *GeminiClient) Name() string { return "Gemini" }

func (g *GeminiClient) StreamChat(ctx context.Context, model string, messages []domain.ChatMessage) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		contents, config := toGeminiContents(messages)

		started := false
		for resp, err := range g.client.Models.GenerateContentStream(ctx, model, contents, config) {
			if err != nil {
				yield("", classify(err, g.errorBase(model), started, geminiStatus))
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			started = true
			if !yield(text, nil) {
				return
			}
		}
	}
}

func (g *GeminiClient) Probe(ctx context.Context, model string) error {
	if _, err := g.client.Models.Get(ctx, model, nil); err != nil {
		return classify(err, g.errorBase(model), false, geminiStatus)
	}
	return nil
}

func (g *GeminiClient) errorBase(model string) domain.ServiceError {
	return domain.ServiceError{Provider: g.Name(), Endpoint: geminiEndpoint, Model: model}
}

// toGeminiContents splits system messages into the system instruction, the
// only place Gemini accepts them.
func toGeminiContents(messages []domain.ChatMessage) ([]*genai.Content, *genai.GenerateContentConfig) {
	var config *genai.GenerateContentConfig
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case domain.SystemRole:
			if config == nil {
				config = &genai.GenerateContentConfig{SystemInstruction: &genai.Content{}}
			}
			config.SystemInstruction.Parts = append(config.SystemInstruction.Parts, &genai.Part{Text: msg.Content})
		case domain.AssistantRole:
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: msg.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: msg.Content}}})
		}
	}
	return contents, config
}

func geminiStatus(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code, true
	}
	return 0, false
}
