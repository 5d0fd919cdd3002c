package domain

import (
	"context"
	"iter"
)

// Llm abstracts any chat/LLM provider that can stream a completion.
type Llm interface {
	// StreamChat sends the conversation to the provider and returns the
	// generated text as a lazy sequence of deltas. The next delta is only
	// requested once the previous one has been consumed. A failure is yielded
	// as the final element, classified as a *ServiceError.
	StreamChat(ctx context.Context, model string, messages []ChatMessage) iter.Seq2[string, error]
	Name() string
}

// Prober is implemented by providers that can check whether a model is
// available before the first request arrives.
type Prober interface {
	Probe(ctx context.Context, model string) error
}

type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Role string

const (
	UserRole      Role = "user"
	AssistantRole Role = "assistant"
	SystemRole    Role = "system"
)
