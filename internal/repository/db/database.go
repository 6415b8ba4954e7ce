package db

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a requested row does not exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a unique key is taken
	ErrAlreadyExists = errors.New("already exists")
)

// Database is the persistence contract used by the service layer
type Database interface {
	// Users
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, user *User) error
	SetPremium(ctx context.Context, email string, premium bool) error

	// Credits. DebitCredit decrements by one only when the balance is
	// positive and reports whether it did.
	DebitCredit(ctx context.Context, email string) (bool, error)
	AddCredits(ctx context.Context, email string, amount int) error

	// Conversations
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	GetConversationsByUserEmail(ctx context.Context, email string) ([]Conversation, error)
	// SaveExchange upserts the conversation row and appends newMessages in
	// one transaction.
	SaveExchange(ctx context.Context, conv *Conversation, newMessages []Message) error
	ClearConversationMessages(ctx context.Context, id string, at time.Time) error

	// Analytics reads, ordered by timestamp ascending
	GetAssistantMessagesByOwnerEmail(ctx context.Context, email string) ([]Message, error)
	GetAllAssistantMessages(ctx context.Context) ([]Message, error)

	// Feedback
	CreateFeedback(ctx context.Context, feedback *Feedback) error

	Close() error
}
