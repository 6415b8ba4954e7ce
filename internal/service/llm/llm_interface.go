package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrConfigurationMissing is returned when a model has no upstream
// identifier or API key.
var ErrConfigurationMissing = errors.New("configuration missing")

// Message is a single chat turn in provider format
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest carries everything needed for one completion call
type CompletionRequest struct {
	Model        string // logical model id, used for logging
	Identifier   string // upstream model identifier
	APIKey       string
	Messages     []Message
	Temperature  *float64
	JSONResponse bool
}

// Provider defines the interface for LLM providers (OpenRouter direct API, Genkit)
type Provider interface {
	// Complete sends the messages and returns the first choice's content
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// StatusError reports a non-success HTTP status from the upstream API
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Body)
}

func checkConfigured(req CompletionRequest) error {
	if req.Identifier == "" || req.APIKey == "" {
		return fmt.Errorf("model %s: %w", req.Model, ErrConfigurationMissing)
	}
	return nil
}
