package llm

import (
	"ai-nexus/internal/config"
	"ai-nexus/internal/logger"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

// maxResponseBytes bounds a completion response body
const maxResponseBytes = 8 << 20

// OpenRouterProvider implements Provider using direct OpenRouter API calls
type OpenRouterProvider struct {
	config  *config.LLMConfig
	client  *http.Client
	maxBody int64
}

// NewOpenRouterProvider creates a new OpenRouter provider with config
func NewOpenRouterProvider(llmConfig *config.LLMConfig) *OpenRouterProvider {
	return &OpenRouterProvider{
		config:  llmConfig,
		client:  &http.Client{},
		maxBody: maxResponseBytes,
	}
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type ChatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Complete sends a chat request and returns the first choice's content.
// Deadlines come from ctx.
func (p *OpenRouterProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if err := checkConfigured(req); err != nil {
		return "", err
	}

	logger.Log.WithFields(logrus.Fields{
		"model":         req.Model,
		"identifier":    req.Identifier,
		"message_count": len(req.Messages),
		"json":          req.JSONResponse,
	}).Info("Calling OpenRouter API")

	reqBody := ChatRequest{
		Model:       req.Identifier,
		Messages:    req.Messages,
		Temperature: req.Temperature,
	}
	if req.JSONResponse {
		reqBody.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.Endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	httpReq.Header.Set("HTTP-Referer", p.config.Referer)
	httpReq.Header.Set("X-Title", p.config.AppTitle)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBody+1))
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}
	if int64(len(body)) > p.maxBody {
		return "", fmt.Errorf("response body exceeds %d bytes", p.maxBody)
	}

	if resp.StatusCode != http.StatusOK {
		logger.Log.WithFields(logrus.Fields{"status": resp.StatusCode, "model": req.Model}).Warn("OpenRouter returned error status")
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	logger.Log.WithField("response_length", len(body)).Debug("Received raw response")

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("error decoding response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no response from API")
	}

	content := chatResp.Choices[0].Message.Content
	logger.Log.WithField("content_length", len(content)).Debug("Extracted content from response")
	return content, nil
}
