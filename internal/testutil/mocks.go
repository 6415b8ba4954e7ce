package testutil

import (
	"ai-nexus/internal/app"
	"ai-nexus/internal/config"
	"ai-nexus/internal/conversation"
	"ai-nexus/internal/repository/db"
	"ai-nexus/internal/repository/memory"
	"ai-nexus/internal/service/llm"
	"context"
	"errors"
	"sync"
	"time"
)

var _ db.Database = (*MockDatabase)(nil)

// MockDatabase is a mock implementation of db.Database for testing.
// Calls without a configured func fall through to Fallback when set.
type MockDatabase struct {
	Fallback db.Database

	// User mocks
	GetUserByEmailFunc func(ctx context.Context, email string) (*db.User, error)
	CreateUserFunc     func(ctx context.Context, user *db.User) error
	SetPremiumFunc     func(ctx context.Context, email string, premium bool) error

	// Credit mocks
	DebitCreditFunc func(ctx context.Context, email string) (bool, error)
	AddCreditsFunc  func(ctx context.Context, email string, amount int) error

	// Conversation mocks
	GetConversationFunc             func(ctx context.Context, id string) (*db.Conversation, error)
	GetConversationsByUserEmailFunc func(ctx context.Context, email string) ([]db.Conversation, error)
	SaveExchangeFunc                func(ctx context.Context, conv *db.Conversation, newMessages []db.Message) error
	ClearConversationMessagesFunc   func(ctx context.Context, id string, at time.Time) error

	// Analytics mocks
	GetAssistantMessagesByOwnerEmailFunc func(ctx context.Context, email string) ([]db.Message, error)
	GetAllAssistantMessagesFunc          func(ctx context.Context) ([]db.Message, error)

	// Feedback mocks
	CreateFeedbackFunc func(ctx context.Context, feedback *db.Feedback) error

	CloseFunc func() error
}

var errNotImplemented = errors.New("not implemented")

// User methods
func (m *MockDatabase) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	if m.GetUserByEmailFunc != nil {
		return m.GetUserByEmailFunc(ctx, email)
	}
	if m.Fallback != nil {
		return m.Fallback.GetUserByEmail(ctx, email)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) CreateUser(ctx context.Context, user *db.User) error {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, user)
	}
	if m.Fallback != nil {
		return m.Fallback.CreateUser(ctx, user)
	}
	return errNotImplemented
}

func (m *MockDatabase) SetPremium(ctx context.Context, email string, premium bool) error {
	if m.SetPremiumFunc != nil {
		return m.SetPremiumFunc(ctx, email, premium)
	}
	if m.Fallback != nil {
		return m.Fallback.SetPremium(ctx, email, premium)
	}
	return errNotImplemented
}

// Credit methods
func (m *MockDatabase) DebitCredit(ctx context.Context, email string) (bool, error) {
	if m.DebitCreditFunc != nil {
		return m.DebitCreditFunc(ctx, email)
	}
	if m.Fallback != nil {
		return m.Fallback.DebitCredit(ctx, email)
	}
	return false, errNotImplemented
}

func (m *MockDatabase) AddCredits(ctx context.Context, email string, amount int) error {
	if m.AddCreditsFunc != nil {
		return m.AddCreditsFunc(ctx, email, amount)
	}
	if m.Fallback != nil {
		return m.Fallback.AddCredits(ctx, email, amount)
	}
	return errNotImplemented
}

// Conversation methods
func (m *MockDatabase) GetConversation(ctx context.Context, id string) (*db.Conversation, error) {
	if m.GetConversationFunc != nil {
		return m.GetConversationFunc(ctx, id)
	}
	if m.Fallback != nil {
		return m.Fallback.GetConversation(ctx, id)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) GetConversationsByUserEmail(ctx context.Context, email string) ([]db.Conversation, error) {
	if m.GetConversationsByUserEmailFunc != nil {
		return m.GetConversationsByUserEmailFunc(ctx, email)
	}
	if m.Fallback != nil {
		return m.Fallback.GetConversationsByUserEmail(ctx, email)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) SaveExchange(ctx context.Context, conv *db.Conversation, newMessages []db.Message) error {
	if m.SaveExchangeFunc != nil {
		return m.SaveExchangeFunc(ctx, conv, newMessages)
	}
	if m.Fallback != nil {
		return m.Fallback.SaveExchange(ctx, conv, newMessages)
	}
	return errNotImplemented
}

func (m *MockDatabase) ClearConversationMessages(ctx context.Context, id string, at time.Time) error {
	if m.ClearConversationMessagesFunc != nil {
		return m.ClearConversationMessagesFunc(ctx, id, at)
	}
	if m.Fallback != nil {
		return m.Fallback.ClearConversationMessages(ctx, id, at)
	}
	return errNotImplemented
}

// Analytics methods
func (m *MockDatabase) GetAssistantMessagesByOwnerEmail(ctx context.Context, email string) ([]db.Message, error) {
	if m.GetAssistantMessagesByOwnerEmailFunc != nil {
		return m.GetAssistantMessagesByOwnerEmailFunc(ctx, email)
	}
	if m.Fallback != nil {
		return m.Fallback.GetAssistantMessagesByOwnerEmail(ctx, email)
	}
	return nil, errNotImplemented
}

func (m *MockDatabase) GetAllAssistantMessages(ctx context.Context) ([]db.Message, error) {
	if m.GetAllAssistantMessagesFunc != nil {
		return m.GetAllAssistantMessagesFunc(ctx)
	}
	if m.Fallback != nil {
		return m.Fallback.GetAllAssistantMessages(ctx)
	}
	return nil, errNotImplemented
}

// Feedback methods
func (m *MockDatabase) CreateFeedback(ctx context.Context, feedback *db.Feedback) error {
	if m.CreateFeedbackFunc != nil {
		return m.CreateFeedbackFunc(ctx, feedback)
	}
	if m.Fallback != nil {
		return m.Fallback.CreateFeedback(ctx, feedback)
	}
	return errNotImplemented
}

func (m *MockDatabase) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// MockLLMProvider is a mock implementation of llm.Provider that records
// every request it receives.
type MockLLMProvider struct {
	CompleteFunc func(ctx context.Context, req llm.CompletionRequest) (string, error)

	mu       sync.Mutex
	requests []llm.CompletionRequest
}

func (m *MockLLMProvider) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return "", errNotImplemented
}

// Requests returns the recorded requests in call order
func (m *MockLLMProvider) Requests() []llm.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]llm.CompletionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// NewMockModelsConfig returns the built-in catalogue with a shared test key
func NewMockModelsConfig() *config.ModelsConfig {
	return config.NewModelsConfigFromList(config.DefaultModels, "test-api-key")
}

// NewMockConfig creates an app.Config wired to database and provider
func NewMockConfig(database db.Database, provider llm.Provider) *app.Config {
	return &app.Config{
		DB:  database,
		LLM: provider,
		AppConfig: &config.AppConfig{
			LLM: config.LLMConfig{
				Provider:                   "openrouter",
				OpenRouterAPIKey:           "test-api-key",
				ChatTimeout:                5 * time.Second,
				AnalysisTimeout:            time.Second,
				ExpertSystemPrompt:         "You are an expert consultant.",
				PromptAnalysisModel:        "gemini",
				PromptAnalysisSystemPrompt: "Return JSON.",
			},
			Auth: config.AuthConfig{
				JWTSecret:       []byte("test-secret-test-secret-test-secret"),
				TokenExpiration: time.Hour,
			},
			Credits: config.CreditsConfig{SignupCredits: 300, UpgradeBonus: 500},
			Models:  NewMockModelsConfig(),
		},
		Locks: conversation.NewLockManager(),
	}
}

// NewMemoryStoreWithUser returns an in-memory store seeded with one user
func NewMemoryStoreWithUser(email string, credits int) *memory.Store {
	store := memory.NewStore()
	store.CreateUser(context.Background(), &db.User{
		Email:    email,
		FullName: "Test User",
		Credits:  credits,
	})
	return store
}
