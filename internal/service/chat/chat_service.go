package chat

import (
	"ai-nexus/internal/app"
	"ai-nexus/internal/apperrors"
	"ai-nexus/internal/conversation"
	"ai-nexus/internal/logger"
	"ai-nexus/internal/repository/db"
	"ai-nexus/internal/service/credits"
	"ai-nexus/internal/service/llm"
	"ai-nexus/internal/service/metrics"
	"ai-nexus/internal/telemetry"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SendMessageRequest contains all the parameters needed to send a message
type SendMessageRequest struct {
	Message        string
	Model          string
	ConversationID string
	ExpertAdvice   bool
}

// SendMessageResponse describes the assistant turn produced by an exchange
type SendMessageResponse struct {
	ID             string
	Content        string
	Model          string
	ConversationID string
	Timestamp      time.Time
	Metrics        db.Metrics
}

// ChatService orchestrates a conversational exchange: it resolves the
// conversation, meters expert advice, calls the provider and persists both
// turns together.
type ChatService struct {
	db          db.Database
	config      *app.Config
	llmProvider llm.Provider
	ledger      *credits.Ledger
	locks       *conversation.LockManager
	now         func() time.Time
	newID       func() string
}

// NewChatService creates a new ChatService
func NewChatService(database db.Database, config *app.Config) *ChatService {
	return &ChatService{
		db:          database,
		config:      config,
		llmProvider: config.LLM,
		ledger:      credits.NewLedger(database, config.Telemetry),
		locks:       lockManager(config),
		now:         func() time.Time { return time.Now().UTC() },
		newID:       func() string { return uuid.New().String() },
	}
}

func lockManager(config *app.Config) *conversation.LockManager {
	if config.Locks != nil {
		return config.Locks
	}
	return conversation.NewLockManager()
}

// SendMessage runs one exchange and returns the assistant reply.
//
// User lookup, ownership and the credit check happen before anything is
// appended. Provider failures are stored as the reply text. The user and
// assistant turns are persisted in a single save; if that save fails a
// debited credit is refunded.
func (s *ChatService) SendMessage(ctx context.Context, req SendMessageRequest, userEmail string) (*SendMessageResponse, error) {
	user, err := s.db.GetUserByEmail(ctx, userEmail)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperrors.NotFound("user %s not found", userEmail)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	model := req.Model
	if model == "" {
		model = s.config.ModelsConfig().GetDefaultModel()
	}

	if req.ConversationID != "" {
		unlock := s.locks.Lock(req.ConversationID)
		defer unlock()
	}

	conv, err := s.getOrCreateConversation(ctx, req.ConversationID, user, model)
	if err != nil {
		return nil, err
	}

	debited := false
	if req.ExpertAdvice {
		ok, err := s.ledger.TryDebit(ctx, user.Email)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperrors.InsufficientCredits("Insufficient credits for expert advice. Please upgrade your plan.")
		}
		debited = true
	}

	// Past this point the exchange is always recorded, even if the caller goes away.
	work := context.WithoutCancel(ctx)

	userMsg := db.NewUserMessage(s.newID(), conv.ID, req.Message, s.now())
	conv.Messages = append(conv.Messages, userMsg)

	systemPrompt := ""
	if req.ExpertAdvice {
		systemPrompt = s.config.AppConfig.LLM.ExpertSystemPrompt
	}
	content, elapsed := s.generate(work, model, buildPromptMessages(conv.Messages, systemPrompt))

	m := metrics.Calculate(elapsed.Milliseconds(), content)
	reply := db.NewAssistantMessage(s.newID(), conv.ID, content, model, &m, s.now())
	conv.Messages = append(conv.Messages, reply)
	conv.UpdatedAt = reply.Timestamp

	if err := s.db.SaveExchange(work, conv, []db.Message{userMsg, reply}); err != nil {
		if debited {
			if refundErr := s.ledger.Refund(work, user.Email); refundErr != nil {
				logger.Log.WithError(refundErr).WithField("email", user.Email).Error("Failed to refund credit after save failure")
			}
		}
		return nil, fmt.Errorf("failed to save conversation: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"conversation_id":  conv.ID,
		"model":            model,
		"expert":           req.ExpertAdvice,
		"response_time_ms": m.ResponseTimeMs,
		"word_count":       m.WordCount,
	}).Info("Exchange completed")

	return &SendMessageResponse{
		ID:             reply.ID,
		Content:        reply.Content,
		Model:          model,
		ConversationID: conv.ID,
		Timestamp:      reply.Timestamp,
		Metrics:        m,
	}, nil
}

// getOrCreateConversation loads the conversation when the id is known and
// owned by user; a missing or unknown id starts a new, unsaved conversation.
func (s *ChatService) getOrCreateConversation(ctx context.Context, conversationID string, user *db.User, model string) (*db.Conversation, error) {
	if conversationID != "" {
		conv, err := s.db.GetConversation(ctx, conversationID)
		switch {
		case err == nil:
			if conv.UserEmail != user.Email {
				return nil, apperrors.NotFound("conversation %s not found", conversationID)
			}
			return conv, nil
		case !errors.Is(err, db.ErrNotFound):
			return nil, fmt.Errorf("failed to load conversation: %w", err)
		}
		logger.Log.WithField("conversation_id", conversationID).Debug("Conversation not found, starting a new one")
	}

	now := s.now()
	return &db.Conversation{
		ID:        s.newID(),
		UserID:    user.ID,
		UserEmail: user.Email,
		Model:     model,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// generate calls the provider under the chat timeout. It never fails:
// errors become the reply text.
func (s *ChatService) generate(ctx context.Context, model string, messages []llm.Message) (string, time.Duration) {
	route := s.config.ModelsConfig().Route(model)
	if !route.Complete() {
		logger.Log.WithField("model", model).Error("Missing configuration for model")
		s.config.Telemetry.ObserveExchange(model, telemetry.OutcomeConfigurationMissing, 0)
		return configurationMissingText(model), 0
	}

	callCtx := ctx
	if timeout := s.config.AppConfig.LLM.ChatTimeout; timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	content, err := s.llmProvider.Complete(callCtx, llm.CompletionRequest{
		Model:      model,
		Identifier: route.Identifier,
		APIKey:     route.APIKey,
		Messages:   messages,
	})
	elapsed := time.Since(start)

	if err != nil {
		logger.Log.WithError(err).WithField("model", model).Warn("Provider call failed, storing error text")
		outcome := telemetry.OutcomeProviderError
		if errors.Is(err, llm.ErrConfigurationMissing) {
			outcome = telemetry.OutcomeConfigurationMissing
		}
		s.config.Telemetry.ObserveExchange(model, outcome, elapsed)
		return providerFailureText(model, err), elapsed
	}

	s.config.Telemetry.ObserveExchange(model, telemetry.OutcomeOK, elapsed)
	return content, elapsed
}

func configurationMissingText(model string) string {
	return "AI Error: Configuration missing for model " + model
}

func providerFailureText(model string, err error) string {
	var statusErr *llm.StatusError
	switch {
	case errors.Is(err, llm.ErrConfigurationMissing):
		return configurationMissingText(model)
	case errors.As(err, &statusErr):
		return fmt.Sprintf("API Error: HTTP %d", statusErr.StatusCode)
	default:
		return "AI Error: " + err.Error()
	}
}

// buildPromptMessages maps the history to provider messages, optionally led
// by a system instruction.
func buildPromptMessages(history []db.Message, systemPrompt string) []llm.Message {
	out := make([]llm.Message, 0, len(history)+1)
	if systemPrompt != "" {
		out = append(out, llm.Message{Role: db.RoleSystem, Content: systemPrompt})
	}
	for _, msg := range history {
		out = append(out, llm.Message{Role: msg.Role(), Content: msg.Content})
	}
	return out
}
