package config

import (
	"encoding/json"
	"os"
)

// Model describes a selectable chat model and how to reach it upstream.
type Model struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
	Provider   string `json:"provider"`
	Expert     bool   `json:"expert"`
	APIKeyEnv  string `json:"api_key_env,omitempty"`

	apiKey string
}

// ModelRoute is the resolved upstream target for a model id.
type ModelRoute struct {
	ID         string
	Identifier string
	APIKey     string
}

// Complete reports whether both the upstream identifier and the key are known.
func (r ModelRoute) Complete() bool {
	return r.Identifier != "" && r.APIKey != ""
}

// ModelsConfig holds the available models. It is immutable after
// construction and safe for concurrent reads.
type ModelsConfig struct {
	models []Model
}

// DefaultModels is the catalogue used when no models file is present.
var DefaultModels = []Model{
	{ID: "gemini", Name: "Gemini 2.5 Pro", Identifier: "google/gemini-2.5-pro", Provider: "openrouter", Expert: true, APIKeyEnv: "GEMINI_API_KEY"},
	{ID: "gpt5", Name: "GPT-5 Chat", Identifier: "openai/gpt-5-chat", Provider: "openrouter", APIKeyEnv: "GPT5_API_KEY"},
	{ID: "grok", Name: "Grok 4.1", Identifier: "x-ai/grok-4.1-fast", Provider: "openrouter", APIKeyEnv: "GROK_API_KEY"},
	{ID: "deepseek", Name: "DeepSeek", Identifier: "deepseek/deepseek-chat", Provider: "openrouter", Expert: true, APIKeyEnv: "DEEPSEEK_API_KEY"},
}

// NewModelsConfig creates a new models configuration from a file. Per-model
// keys are read from each model's api_key_env, falling back to fallbackKey.
func NewModelsConfig(configPath string, fallbackKey string) (*ModelsConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var models []Model
	err = json.Unmarshal(data, &models)
	if err != nil {
		return nil, err
	}

	return NewModelsConfigFromList(models, fallbackKey), nil
}

// NewModelsConfigFromList builds a config from an in-memory catalogue.
func NewModelsConfigFromList(models []Model, fallbackKey string) *ModelsConfig {
	resolved := make([]Model, len(models))
	for i, m := range models {
		m.apiKey = fallbackKey
		if m.APIKeyEnv != "" {
			if key := os.Getenv(m.APIKeyEnv); key != "" {
				m.apiKey = key
			}
		}
		resolved[i] = m
	}
	return &ModelsConfig{models: resolved}
}

// GetAvailableModels returns a copy of the configured models
func (mc *ModelsConfig) GetAvailableModels() []Model {
	out := make([]Model, len(mc.models))
	copy(out, mc.models)
	return out
}

// IsValidModel checks if a model ID is in the list of available models
func (mc *ModelsConfig) IsValidModel(modelID string) bool {
	_, ok := mc.find(modelID)
	return ok
}

// GetDefaultModel returns the first model as the default
func (mc *ModelsConfig) GetDefaultModel() string {
	if len(mc.models) > 0 {
		return mc.models[0].ID
	}
	return "gemini"
}

// DisplayName returns the human readable name for a model id, or the id
// itself when the model is unknown.
func (mc *ModelsConfig) DisplayName(modelID string) string {
	if m, ok := mc.find(modelID); ok && m.Name != "" {
		return m.Name
	}
	return modelID
}

// Route resolves the upstream identifier and key for a model id. Unknown ids
// yield an incomplete route.
func (mc *ModelsConfig) Route(modelID string) ModelRoute {
	m, ok := mc.find(modelID)
	if !ok {
		return ModelRoute{ID: modelID}
	}
	return ModelRoute{ID: m.ID, Identifier: m.Identifier, APIKey: m.apiKey}
}

func (mc *ModelsConfig) find(modelID string) (Model, bool) {
	for _, model := range mc.models {
		if model.ID == modelID {
			return model, true
		}
	}
	return Model{}, false
}
