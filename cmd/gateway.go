package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/ai/anthropic"
	"github.com/spigell/hh-interviewer/internal/ai/gemini"
	"github.com/spigell/hh-interviewer/internal/ai/ollama"
	"github.com/spigell/hh-interviewer/internal/ai/openai"
	"github.com/spigell/hh-interviewer/internal/secrets"

	"go.uber.org/zap"
)

// newGateway builds the provider generator named in cfg and wraps it in the
// shared client that adds timeouts, logging and metrics.
func newGateway(ctx context.Context, cfg *AIConfig, recorder ai.Recorder, logger *zap.Logger) (*ai.Client, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider == "" {
		provider = "gemini"
	}

	generator, err := newGenerator(ctx, provider, cfg, logger)
	if err != nil {
		return nil, err
	}

	return ai.NewClient(generator, ai.Options{
		Provider:     provider,
		Timeout:      cfg.Timeout,
		MaxLogLength: cfg.MaxLogLength,
		Recorder:     recorder,
	}, logger), nil
}

func newGenerator(ctx context.Context, provider string, cfg *AIConfig, logger *zap.Logger) (ai.ContentGenerator, error) {
	switch provider {
	case "gemini":
		c := cfg.Gemini
		if c == nil {
			c = &GeminiConfig{}
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: c.APIKey,
			File:  c.APIKeyFile,
			Env:   "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
		}

		genLogger := logger.With(
			zap.String("provider", provider),
			zap.String("model", c.Model),
			zap.Int("ai_retry_attempts", c.MaxRetries),
		)

		return gemini.NewGenerator(ctx, apiKey, c.Model, c.MaxRetries, genLogger)

	case "openai":
		c := cfg.OpenAI
		if c == nil {
			c = &OpenAIConfig{}
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "openai api key",
			Value: c.APIKey,
			File:  c.APIKeyFile,
			Env:   "OPENAI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.openai.api-key-file or OPENAI_API_KEY)", err)
		}

		return openai.NewGenerator(apiKey, c.Model, c.BaseURL)

	case "anthropic":
		c := cfg.Anthropic
		if c == nil {
			c = &AnthropicConfig{}
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "anthropic api key",
			Value: c.APIKey,
			File:  c.APIKeyFile,
			Env:   "ANTHROPIC_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.anthropic.api-key-file or ANTHROPIC_API_KEY)", err)
		}

		return anthropic.NewGenerator(apiKey, c.Model, c.MaxTokens, c.BaseURL)

	case "ollama":
		c := cfg.Ollama
		if c == nil {
			c = &OllamaConfig{}
		}

		return ollama.NewGenerator(c.Host, c.Model, nil)

	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
}
