package handlers

import (
	"ai-nexus/internal/app"
	"ai-nexus/internal/auth"
	analyticsService "ai-nexus/internal/service/analytics"
	feedbackService "ai-nexus/internal/service/feedback"
	promptService "ai-nexus/internal/service/prompt"
	"ai-nexus/pkg/validation"
	"net/http"
)

type PromptRequest struct {
	Prompt string `json:"prompt"`
}

type FeedbackRequest struct {
	Content     string `json:"content"`
	Type        string `json:"type"`
	ContactInfo string `json:"contactInfo"`
}

type FeedbackResponse struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
}

// InsightHandlers serves analytics, prompt analysis and feedback
type InsightHandlers struct {
	validator        *validation.ChatRequestValidator
	analyticsService *analyticsService.AnalyticsService
	promptService    *promptService.PromptService
	feedbackService  *feedbackService.FeedbackService
}

func NewInsightHandlers(config *app.Config) *InsightHandlers {
	return &InsightHandlers{
		validator:        validation.NewChatRequestValidator(config.ModelsConfig().IsValidModel),
		analyticsService: analyticsService.NewAnalyticsService(config.DB, config),
		promptService:    promptService.NewPromptService(config.DB, config),
		feedbackService:  feedbackService.NewFeedbackService(config.DB),
	}
}

// PersonalAnalyticsHandler returns the caller's per-model stats and daily activity
func (h *InsightHandlers) PersonalAnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.analyticsService.PersonalAnalytics(r.Context(), auth.UserEmail(r.Context()))
	if err != nil {
		sendServiceError(w, r, "Error computing analytics", err)
		return
	}
	sendJSON(w, http.StatusOK, result)
}

// LeaderboardHandler returns the global model rankings
func (h *InsightHandlers) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.analyticsService.GlobalLeaderboard(r.Context())
	if err != nil {
		sendServiceError(w, r, "Error computing leaderboard", err)
		return
	}
	sendJSON(w, http.StatusOK, result)
}

// AnalyzePromptHandler grades a prompt. Premium callers pay one credit.
func (h *InsightHandlers) AnalyzePromptHandler(w http.ResponseWriter, r *http.Request) {
	var req PromptRequest
	if err := decodeJSON(r, &req, false); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validator.ValidatePrompt(req.Prompt); err != nil {
		sendError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	result, err := h.promptService.Analyze(r.Context(), req.Prompt, auth.UserEmail(r.Context()))
	if err != nil {
		sendServiceError(w, r, "Error analyzing prompt", err)
		return
	}
	sendJSON(w, http.StatusOK, result)
}

// SubmitFeedbackHandler stores a feedback note, anonymously when no token is sent
func (h *InsightHandlers) SubmitFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if err := decodeJSON(r, &req, false); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	fb, err := h.feedbackService.Submit(r.Context(), feedbackService.SubmitRequest{
		Content:     req.Content,
		Type:        req.Type,
		ContactInfo: req.ContactInfo,
	}, auth.UserEmail(r.Context()))
	if err != nil {
		sendServiceError(w, r, "Error submitting feedback", err)
		return
	}
	sendJSON(w, http.StatusOK, FeedbackResponse{ID: fb.ID, Success: true})
}
