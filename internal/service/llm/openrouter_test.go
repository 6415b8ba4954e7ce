package llm

import (
	"ai-nexus/internal/config"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(endpoint string) *OpenRouterProvider {
	return NewOpenRouterProvider(&config.LLMConfig{
		Endpoint: endpoint,
		Referer:  "http://localhost:5173",
		AppTitle: "AI Nexus",
	})
}

func validRequest() CompletionRequest {
	return CompletionRequest{
		Model:      "gemini",
		Identifier: "google/gemini-2.5-pro",
		APIKey:     "sk-test",
		Messages:   []Message{{Role: "user", Content: "hello"}},
	}
}

func TestComplete_Success(t *testing.T) {
	var captured ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "AI Nexus", r.Header.Get("X-Title"))
		assert.Equal(t, "http://localhost:5173", r.Header.Get("HTTP-Referer"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"gen-1","choices":[{"message":{"role":"assistant","content":"Hi there!"}},{"message":{"role":"assistant","content":"ignored"}}]}`))
	}))
	defer server.Close()

	got, err := newTestProvider(server.URL).Complete(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "Hi there!", got)
	assert.Equal(t, "google/gemini-2.5-pro", captured.Model)
	assert.Nil(t, captured.ResponseFormat)
	assert.Len(t, captured.Messages, 1)
}

func TestComplete_JSONResponseFormat(t *testing.T) {
	var captured ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	}))
	defer server.Close()

	req := validRequest()
	req.JSONResponse = true
	_, err := newTestProvider(server.URL).Complete(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, captured.ResponseFormat)
	assert.Equal(t, "json_object", captured.ResponseFormat.Type)
}

func TestComplete_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer server.Close()

	_, err := newTestProvider(server.URL).Complete(context.Background(), validRequest())

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Contains(t, statusErr.Error(), "API returned status 429")
}

func TestComplete_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	_, err := newTestProvider(server.URL).Complete(context.Background(), validRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error decoding response")
}

func TestComplete_OversizedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"` + strings.Repeat("x", 256) + `"}}]}`))
	}))
	defer server.Close()

	provider := newTestProvider(server.URL)
	provider.maxBody = 64
	_, err := provider.Complete(context.Background(), validRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "response body exceeds 64 bytes")
}

func TestComplete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	_, err := newTestProvider(server.URL).Complete(context.Background(), validRequest())
	assert.EqualError(t, err, "no response from API")
}

func TestComplete_ConfigurationMissing(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*CompletionRequest)
	}{
		{"no identifier", func(r *CompletionRequest) { r.Identifier = "" }},
		{"no key", func(r *CompletionRequest) { r.APIKey = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mut(&req)
			_, err := newTestProvider("http://127.0.0.1:0").Complete(context.Background(), req)
			assert.ErrorIs(t, err, ErrConfigurationMissing)
		})
	}
}

func TestComplete_ContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestProvider(server.URL).Complete(ctx, validRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewProvider_Selection(t *testing.T) {
	cfg := &config.AppConfig{LLM: config.LLMConfig{Provider: "openrouter"}}
	p, err := NewProvider(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &OpenRouterProvider{}, p)

	cfg.LLM.Provider = "carrier-pigeon"
	_, err = NewProvider(context.Background(), cfg)
	assert.Error(t, err)

	cfg.LLM.Provider = "genkit"
	cfg.Models = config.NewModelsConfigFromList(config.DefaultModels, "")
	_, err = NewProvider(context.Background(), cfg)
	assert.EqualError(t, err, "OPENROUTER_API_KEY not configured")
}

func TestToGenkitMessages(t *testing.T) {
	out := toGenkitMessages([]Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hi"},
	})
	require.Len(t, out, 2)
	assert.Equal(t, "system", string(out[0].Role))
	assert.Equal(t, "hi", out[1].Content[0].Text)
}
