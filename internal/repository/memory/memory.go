// Package memory provides an in-process db.Database used for local runs
// (DB_DRIVER=memory) and tests.
package memory

import (
	"ai-nexus/internal/logger"
	"ai-nexus/internal/repository/db"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var _ db.Database = (*Store)(nil)

// Store keeps every row in maps guarded by a single RWMutex
type Store struct {
	mu            sync.RWMutex
	users         map[string]*db.User // by email
	conversations map[string]*db.Conversation
	feedback      []db.Feedback
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:         make(map[string]*db.User),
		conversations: make(map[string]*db.Conversation),
	}
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[email]
	if !ok {
		return nil, db.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *Store) CreateUser(ctx context.Context, user *db.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Email]; exists {
		return db.ErrAlreadyExists
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	copied := *user
	s.users[user.Email] = &copied

	logger.Log.WithFields(logrus.Fields{"email": user.Email, "user_id": user.ID}).Info("Created new user")
	return nil
}

func (s *Store) SetPremium(ctx context.Context, email string, premium bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[email]
	if !ok {
		return db.ErrNotFound
	}
	user.IsPremium = premium
	return nil
}

func (s *Store) DebitCredit(ctx context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[email]
	if !ok {
		return false, db.ErrNotFound
	}
	if user.Credits <= 0 {
		return false, nil
	}
	user.Credits--
	return true, nil
}

func (s *Store) AddCredits(ctx context.Context, email string, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[email]
	if !ok {
		return db.ErrNotFound
	}
	user.Credits += amount
	return nil
}

func (s *Store) GetConversation(ctx context.Context, id string) (*db.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return cloneConversation(conv), nil
}

func (s *Store) GetConversationsByUserEmail(ctx context.Context, email string) ([]db.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []db.Conversation
	for _, conv := range s.conversations {
		if conv.UserEmail == email {
			out = append(out, *cloneConversation(conv))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *Store) SaveExchange(ctx context.Context, conv *db.Conversation, newMessages []db.Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("error saving conversation: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.conversations[conv.ID]
	if !ok {
		stored = &db.Conversation{
			ID:        conv.ID,
			UserID:    conv.UserID,
			UserEmail: conv.UserEmail,
			CreatedAt: conv.CreatedAt,
		}
		s.conversations[conv.ID] = stored
	}
	stored.Model = conv.Model
	stored.UpdatedAt = conv.UpdatedAt
	for _, msg := range newMessages {
		stored.Messages = append(stored.Messages, cloneMessage(msg))
	}

	logger.Log.WithFields(logrus.Fields{
		"conversation_id": conv.ID,
		"new_messages":    len(newMessages),
		"total_messages":  len(stored.Messages),
	}).Debug("Saved conversation exchange")
	return nil
}

func (s *Store) ClearConversationMessages(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return db.ErrNotFound
	}
	conv.Messages = nil
	conv.UpdatedAt = at
	return nil
}

func (s *Store) GetAssistantMessagesByOwnerEmail(ctx context.Context, email string) ([]db.Message, error) {
	return s.assistantMessages(func(c *db.Conversation) bool { return c.UserEmail == email }), nil
}

func (s *Store) GetAllAssistantMessages(ctx context.Context) ([]db.Message, error) {
	return s.assistantMessages(func(*db.Conversation) bool { return true }), nil
}

func (s *Store) assistantMessages(include func(*db.Conversation) bool) []db.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []db.Message
	for _, conv := range s.conversations {
		if !include(conv) {
			continue
		}
		for _, msg := range conv.Messages {
			if !msg.IsUser() {
				out = append(out, cloneMessage(msg))
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func (s *Store) CreateFeedback(ctx context.Context, feedback *db.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if feedback.ID == "" {
		feedback.ID = uuid.New().String()
	}
	s.feedback = append(s.feedback, *feedback)
	return nil
}

// Feedback returns every stored feedback entry
func (s *Store) Feedback() []db.Feedback {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]db.Feedback, len(s.feedback))
	copy(out, s.feedback)
	return out
}

func cloneConversation(conv *db.Conversation) *db.Conversation {
	copied := *conv
	copied.Messages = make([]db.Message, len(conv.Messages))
	for i, msg := range conv.Messages {
		copied.Messages[i] = cloneMessage(msg)
	}
	return &copied
}

func cloneMessage(msg db.Message) db.Message {
	if msg.Reply != nil {
		reply := *msg.Reply
		if reply.Metrics != nil {
			metrics := *reply.Metrics
			reply.Metrics = &metrics
		}
		msg.Reply = &reply
	}
	return msg
}
