package usecase

import (
	"context"
	"iter"

	"go.uber.org/zap"

	"github.com/satriahrh/cocoa-fruit/ollama-chat/domain"
	"github.com/satriahrh/cocoa-fruit/ollama-chat/utils/log"
)

type ChatService struct {
	llm   domain.Llm
	model string
}

func NewChatService(gen domain.Llm, model string) *ChatService {
	return &ChatService{llm: gen, model: model}
}

func (s *ChatService) Provider() string { return s.llm.Name() }

func (s *ChatService) Model() string { return s.model }

// Stream sends prompt as a fresh single-message conversation and returns the
// answer as fragments. Provider failures never escape: they end the sequence
// with one FragmentError, or with nothing when the caller has gone away.
func (s *ChatService) Stream(ctx context.Context, prompt string) iter.Seq[domain.Fragment] {
	return func(yield func(domain.Fragment) bool) {
		messages := []domain.ChatMessage{{Role: domain.UserRole, Content: prompt}}

		count := 0
		for text, err := range s.llm.StreamChat(ctx, s.model, messages) {
			if err != nil {
				se := domain.AsServiceError(err)
				logger := log.WithCtx(ctx).With(
					zap.String("provider", s.llm.Name()),
					zap.String("model", s.model),
					zap.Stringer("kind", se.Kind),
					zap.Int("fragments", count),
					zap.Error(err),
				)
				if se.Kind == domain.KindCanceled {
					logger.Debug("Chat stream abandoned by caller")
					return
				}
				logger.Error("Error during chat stream")
				yield(domain.ErrorFragment(se))
				return
			}
			if text == "" {
				continue
			}
			count++
			if !yield(domain.TextFragment(text)) {
				return
			}
		}
		log.WithCtx(ctx).Debug("Chat stream completed", zap.Int("fragments", count))
	}
}

// Probe reports whether the configured model is ready. Providers that cannot
// check return nil.
func (s *ChatService) Probe(ctx context.Context) error {
	if p, ok := s.llm.(domain.Prober); ok {
		return p.Probe(ctx, s.model)
	}
	return nil
}
