package llm

import (
	"context"
	"fmt"

	"github.com/set-night/lexmind/internal/config"
)

// NewProvider builds the collaborator selected by LLM_BACKEND.
func NewProvider(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch cfg.LLMBackend {
	case config.BackendGemini:
		return NewGeminiProvider(ctx, cfg.GoogleAPIKey, cfg.GeminiTextModel, cfg.GeminiVisionModel)
	case config.BackendOpenRouter:
		return NewOpenRouterProvider(cfg.OpenRouterKey, cfg.OpenRouterTextModel, cfg.OpenRouterVisionModel), nil
	case config.BackendOpenAI:
		return NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAITextModel, cfg.OpenAIVisionModel), nil
	case config.BackendMock:
		return NewMockProvider(), nil
	}
	return nil, fmt.Errorf("unknown LLM backend %q", cfg.LLMBackend)
}
