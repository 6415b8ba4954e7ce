package prompt

import (
	"ai-nexus/internal/app"
	"ai-nexus/internal/apperrors"
	"ai-nexus/internal/logger"
	"ai-nexus/internal/repository/db"
	"ai-nexus/internal/service/credits"
	"ai-nexus/internal/service/llm"
	"ai-nexus/internal/telemetry"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

const (
	fallbackCritique      = "Score based on length and structure (Fallback)."
	missingConfigCritique = "Missing AI configuration."
	analysisTemperature   = 0.2
)

// Analysis is the graded prompt returned to the client
type Analysis struct {
	Score           int    `json:"score"`
	Critique        string `json:"critique"`
	OptimizedPrompt string `json:"optimizedPrompt"`
	CanImprove      bool   `json:"canImprove"`
}

// PromptService grades a prompt with the configured analysis model and
// falls back to a local heuristic when the model cannot answer.
type PromptService struct {
	db          db.Database
	config      *app.Config
	llmProvider llm.Provider
	ledger      *credits.Ledger
}

// NewPromptService creates a new PromptService
func NewPromptService(database db.Database, config *app.Config) *PromptService {
	return &PromptService{
		db:          database,
		config:      config,
		llmProvider: config.LLM,
		ledger:      credits.NewLedger(database, config.Telemetry),
	}
}

// Analyze grades prompt. userEmail is empty for anonymous callers. Premium
// users pay one credit per analysis.
func (s *PromptService) Analyze(ctx context.Context, prompt, userEmail string) (*Analysis, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, apperrors.InvalidInput("prompt cannot be empty")
	}

	if userEmail != "" {
		if err := s.chargePremium(ctx, userEmail); err != nil {
			return nil, err
		}
	}

	analysis, source := s.analyze(ctx, prompt)
	s.config.Telemetry.CountPromptAnalysis(source)
	return analysis, nil
}

func (s *PromptService) chargePremium(ctx context.Context, email string) error {
	user, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsPremium {
		return nil
	}

	ok, err := s.ledger.TryDebit(ctx, email)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.InsufficientCredits("Insufficient credits for prompt analysis.")
	}
	return nil
}

func (s *PromptService) analyze(ctx context.Context, prompt string) (*Analysis, string) {
	llmCfg := s.config.AppConfig.LLM
	model := llmCfg.PromptAnalysisModel
	route := s.config.ModelsConfig().Route(model)
	if !route.Complete() {
		logger.Log.WithField("model", model).Warn("Prompt analysis model not configured")
		return &Analysis{Score: 5, Critique: missingConfigCritique, OptimizedPrompt: prompt}, telemetry.SourceFallback
	}

	callCtx := ctx
	if llmCfg.AnalysisTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, llmCfg.AnalysisTimeout)
		defer cancel()
	}

	temperature := analysisTemperature
	content, err := s.llmProvider.Complete(callCtx, llm.CompletionRequest{
		Model:      model,
		Identifier: route.Identifier,
		APIKey:     route.APIKey,
		Messages: []llm.Message{
			{Role: db.RoleSystem, Content: llmCfg.PromptAnalysisSystemPrompt},
			{Role: db.RoleUser, Content: prompt},
		},
		Temperature:  &temperature,
		JSONResponse: true,
	})
	if err != nil {
		logger.Log.WithError(err).WithField("model", model).Warn("Prompt analysis failed, using heuristic score")
		return HeuristicScore(prompt), telemetry.SourceFallback
	}

	analysis, err := ParseAnalysis(content)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{
			"model":         model,
			"content_chars": len(content),
		}).WithError(err).Warn("Unreadable prompt analysis, using heuristic score")
		return HeuristicScore(prompt), telemetry.SourceFallback
	}
	return analysis, telemetry.SourceModel
}

// ParseAnalysis decodes a model reply, tolerating a Markdown code fence
// around the JSON object.
func ParseAnalysis(content string) (*Analysis, error) {
	var analysis Analysis
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &analysis); err != nil {
		return nil, fmt.Errorf("error decoding analysis: %w", err)
	}
	return &analysis, nil
}

func stripCodeFence(content string) string {
	for _, fence := range []string{"```json", "```"} {
		start := strings.Index(content, fence)
		if start < 0 {
			continue
		}
		rest := content[start+len(fence):]
		if end := strings.LastIndex(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(content)
}

// HeuristicScore grades a prompt by length and shape alone
func HeuristicScore(prompt string) *Analysis {
	score := min(10, utf8.RuneCountInString(strings.TrimSpace(prompt))/20+2)
	if strings.Contains(prompt, "?") {
		score++
	}
	if len(strings.Fields(prompt)) > 10 {
		score += 2
	}
	score = min(10, score)

	return &Analysis{
		Score:           score,
		Critique:        fallbackCritique,
		OptimizedPrompt: prompt,
		CanImprove:      score < 8,
	}
}
