package llm

import (
	"ai-nexus/internal/config"
	"context"
	"fmt"
)

// NewProvider returns the provider selected by LLM_PROVIDER
func NewProvider(ctx context.Context, cfg *config.AppConfig) (Provider, error) {
	switch cfg.LLM.Provider {
	case "", "openrouter":
		return NewOpenRouterProvider(&cfg.LLM), nil
	case "genkit":
		return NewGenkitProvider(ctx, &cfg.LLM, cfg.Models)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.LLM.Provider)
	}
}
