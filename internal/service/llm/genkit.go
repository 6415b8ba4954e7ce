package llm

import (
	"ai-nexus/internal/config"
	"ai-nexus/internal/logger"
	"context"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai"
	"github.com/openai/openai-go"
	"github.com/sirupsen/logrus"
)

const genkitModelPrefix = "openrouter/"

// GenkitProvider implements Provider using Firebase Genkit with OpenRouter via
// compat_oai. The plugin is bound to one API key at init, so per-model keys
// only gate whether a model is configured.
type GenkitProvider struct {
	genkit *genkit.Genkit
}

// NewGenkitProvider creates a new Genkit provider instance configured for OpenRouter
func NewGenkitProvider(ctx context.Context, llmConfig *config.LLMConfig, modelsConfig *config.ModelsConfig) (*GenkitProvider, error) {
	if llmConfig.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY not configured")
	}

	defaultRoute := modelsConfig.Route(modelsConfig.GetDefaultModel())

	g := genkit.Init(ctx,
		genkit.WithPlugins(&compat_oai.OpenAICompatible{
			Provider: "openrouter",
			APIKey:   llmConfig.OpenRouterAPIKey,
			BaseURL:  strings.TrimSuffix(llmConfig.Endpoint, "/chat/completions"),
		}),
		genkit.WithDefaultModel(genkitModelPrefix+defaultRoute.Identifier),
	)

	logger.Log.WithField("default_model", defaultRoute.Identifier).Info("Initialized Genkit with OpenRouter provider")

	return &GenkitProvider{genkit: g}, nil
}

// Complete generates a reply through Genkit
func (p *GenkitProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if err := checkConfigured(req); err != nil {
		return "", err
	}

	model := req.Identifier
	if !strings.HasPrefix(model, genkitModelPrefix) {
		model = genkitModelPrefix + model
	}

	logger.Log.WithFields(logrus.Fields{
		"model":         model,
		"message_count": len(req.Messages),
	}).Info("Calling Genkit")

	resp, err := genkit.Generate(ctx, p.genkit,
		ai.WithMessages(toGenkitMessages(req.Messages)...),
		ai.WithModelName(model),
		ai.WithConfig(generationConfig(req)),
	)
	if err != nil {
		return "", fmt.Errorf("genkit generation failed: %w", err)
	}

	return resp.Text(), nil
}

func toGenkitMessages(messages []Message) []*ai.Message {
	out := make([]*ai.Message, 0, len(messages))
	for _, msg := range messages {
		out = append(out, &ai.Message{
			Role:    ai.Role(msg.Role),
			Content: []*ai.Part{ai.NewTextPart(msg.Content)},
		})
	}
	return out
}

func generationConfig(req CompletionRequest) *openai.ChatCompletionNewParams {
	params := &openai.ChatCompletionNewParams{}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	return params
}
