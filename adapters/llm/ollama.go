package llm

import (
	"context"
	"errors"
	"iter"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/satriahrh/cocoa-fruit/ollama-chat/domain"
)

// OllamaClient streams chat completions from a local Ollama server through
// its OpenAI-compatible endpoint.
type OllamaClient struct {
	client *openai.Client
	host   string
}

func NewOllamaClient(host string, opts ...option.RequestOption) *OllamaClient {
	host = strings.TrimRight(host, "/")
	options := []option.RequestOption{
		option.WithBaseURL(host + "/v1/"),
		// Ollama ignores the key but the client refuses to send without one.
		option.WithAPIKey("ollama"),
		option.WithMaxRetries(0),
	}
	client := openai.NewClient(append(options, opts...)...)
	return &OllamaClient{client: &client, host: host}
}

func (o *OllamaClient) Name() string { return "Ollama" }

func (o *OllamaClient) StreamChat(ctx context.Context, model string, messages []domain.ChatMessage) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stream := o.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
			Model:    openai.ChatModel(model),
			Messages: toOpenAIMessages(messages),
		})
		defer stream.Close()

		started := false
		for stream.Next() {
			for _, choice := range stream.Current().Choices {
				if choice.Delta.Content == "" {
					continue
				}
				started = true
				if !yield(choice.Delta.Content, nil) {
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			se := classify(err, o.errorBase(model), started, openAIStatus)
			// An error event inside the stream has no status code but still
			// comes from the service.
			if se.Kind == domain.KindInternal {
				se.Kind = domain.KindStream
			}
			yield("", se)
		}
	}
}

// Probe checks that the model has been pulled.
func (o *OllamaClient) Probe(ctx context.Context, model string) error {
	if _, err := o.client.Models.Get(ctx, model); err != nil {
		return classify(err, o.errorBase(model), false, openAIStatus)
	}
	return nil
}

func (o *OllamaClient) errorBase(model string) domain.ServiceError {
	return domain.ServiceError{Provider: o.Name(), Endpoint: o.host, Model: model}
}

func toOpenAIMessages(messages []domain.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case domain.SystemRole:
			out = append(out, openai.SystemMessage(msg.Content))
		case domain.AssistantRole:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

func openAIStatus(err error) (int, bool) {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, true
	}
	return 0, false
}
