package conversation

import (
	"ai-nexus/internal/app"
	"ai-nexus/internal/apperrors"
	locks "ai-nexus/internal/conversation"
	"ai-nexus/internal/logger"
	"ai-nexus/internal/repository/db"
	"context"
	"errors"
	"fmt"
	"time"
)

// ConversationService handles reading and clearing conversations
type ConversationService struct {
	db    db.Database
	locks *locks.LockManager
	now   func() time.Time
}

// NewConversationService creates a new ConversationService
func NewConversationService(database db.Database, config *app.Config) *ConversationService {
	lm := config.Locks
	if lm == nil {
		lm = locks.NewLockManager()
	}
	return &ConversationService{
		db:    database,
		locks: lm,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// GetConversation returns a conversation owned by userEmail
func (s *ConversationService) GetConversation(ctx context.Context, conversationID, userEmail string) (*db.Conversation, error) {
	conv, err := s.db.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperrors.NotFound("conversation %s not found", conversationID)
		}
		return nil, fmt.Errorf("failed to retrieve conversation: %w", err)
	}

	if conv.UserEmail != userEmail {
		return nil, apperrors.NotFound("conversation %s not found", conversationID)
	}

	return conv, nil
}

// ListConversations returns the user's conversations, most recently updated first
func (s *ConversationService) ListConversations(ctx context.Context, userEmail string) ([]db.Conversation, error) {
	conversations, err := s.db.GetConversationsByUserEmail(ctx, userEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve conversations: %w", err)
	}
	return conversations, nil
}

// ClearConversation deletes every message of the conversation. Unknown ids,
// and ids owned by someone else, are a silent no-op.
func (s *ConversationService) ClearConversation(ctx context.Context, conversationID, userEmail string) error {
	unlock := s.locks.Lock(conversationID)
	defer unlock()

	conv, err := s.db.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to retrieve conversation: %w", err)
	}
	if conv.UserEmail != userEmail {
		return nil
	}

	if err := s.db.ClearConversationMessages(ctx, conversationID, s.now()); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to clear conversation: %w", err)
	}

	logger.Log.WithField("conversation_id", conversationID).Info("Conversation cleared")
	return nil
}
