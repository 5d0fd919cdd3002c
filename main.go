package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/cocoa-fruit/ollama-chat/adapters/http"
	"github.com/satriahrh/cocoa-fruit/ollama-chat/adapters/llm"
	"github.com/satriahrh/cocoa-fruit/ollama-chat/adapters/websocket"
	"github.com/satriahrh/cocoa-fruit/ollama-chat/config"
	"github.com/satriahrh/cocoa-fruit/ollama-chat/domain"
	"github.com/satriahrh/cocoa-fruit/ollama-chat/usecase"
	"github.com/satriahrh/cocoa-fruit/ollama-chat/utils/log"
)

func main() {
	defer log.Sync()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.With(zap.Error(err)).Fatal("Invalid configuration")
	}
	if cfg.Debug {
		// DEBUG may only have arrived through .env
		if dev, err := zap.NewDevelopment(); err == nil {
			log.Replace(dev)
		}
	}

	ctx := context.Background()
	provider, err := newProvider(ctx, cfg)
	if err != nil {
		log.With(zap.Error(err)).Fatal("Failed to create inference client")
	}

	svc := usecase.NewChatService(provider, cfg.Model)
	probe(ctx, svc)

	wsServer := websocket.NewServer(svc.Stream)
	chatHandler := http.NewChatHandler(svc, wsServer.GetHub())
	server := http.NewServer(cfg, chatHandler,
		http.WithRoute("/ws", wsServer.Handler),
		http.WithShutdownHook(wsServer.Close),
	)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.With().Info("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.With(zap.Error(err)).Error("Shutdown did not complete")
		}
	}()

	log.With(
		zap.String("provider", svc.Provider()),
		zap.String("model", svc.Model()),
	).Info("Available endpoints: GET / (page), POST / (stream prompt), GET /health, GET /ws")

	if err := server.Start(); err != nil {
		log.With(zap.Error(err)).Fatal("Server error")
	}
}

func newProvider(ctx context.Context, cfg *config.Config) (domain.Llm, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		return llm.NewOllamaClient(cfg.OllamaHost), nil
	case config.ProviderGemini:
		client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// probe warns early when the model is missing; requests still go through and
// report the problem themselves.
func probe(ctx context.Context, svc *usecase.ChatService) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := svc.Probe(ctx); err != nil {
		se := domain.AsServiceError(err)
		msg := se.Diagnostic()
		if msg == "" {
			msg = "Model probe timed out"
		}
		log.With(zap.Stringer("kind", se.Kind), zap.Error(err)).Warn(msg)
		return
	}
	log.With(zap.String("model", svc.Model())).Info("Model is available")
}
