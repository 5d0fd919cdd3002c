package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/subosito/gotenv"
)

const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

type Config struct {
	// Server
	Addr      string
	BodyLimit string
	// Requests per second per client IP; zero disables the limiter.
	RateLimit float64
	Debug     bool

	// Inference
	Provider     string
	Model        string
	OllamaHost   string
	GeminiAPIKey string
}

func Load() *Config {
	// Load .env file if it exists
	gotenv.Load()

	return &Config{
		Addr:         getEnvOrDefault("LISTEN_ADDR", ":5000"),
		BodyLimit:    getEnvOrDefault("BODY_LIMIT", "1M"),
		RateLimit:    getEnvAsFloatOrDefault("RATE_LIMIT", 0),
		Debug:        getEnvOrDefault("DEBUG", "false") == "true",
		Provider:     getEnvOrDefault("LLM_PROVIDER", ProviderOllama),
		Model:        getEnvOrDefault("LLM_MODEL", "llama2"),
		OllamaHost:   getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434"),
		GeminiAPIKey: getEnvOrDefault("GEMINI_API_KEY", ""),
	}
}

func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOllama:
		if c.OllamaHost == "" {
			return fmt.Errorf("OLLAMA_HOST must not be empty")
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for provider %q", c.Provider)
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q (valid: %s, %s)", c.Provider, ProviderOllama, ProviderGemini)
	}
	if c.Model == "" {
		return fmt.Errorf("LLM_MODEL must not be empty")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("RATE_LIMIT must not be negative, got %v", c.RateLimit)
	}
	return nil
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}
