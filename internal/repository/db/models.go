package db

import "time"

// Roles as sent to the provider and rendered by the API
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// User represents a user in the database
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FullName     string
	Credits      int
	IsPremium    bool
	CreatedAt    time.Time
}

// Conversation represents a conversation with its ordered messages
type Conversation struct {
	ID        string
	UserID    string
	UserEmail string
	Model     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Messages  []Message
}

// Metrics are the performance figures recorded for an assistant reply
type Metrics struct {
	ResponseTimeMs  int64   `json:"responseTimeMs"`
	WordCount       int     `json:"wordCount"`
	TokensPerSecond float64 `json:"tokensPerSecond"`
}

// Reply holds the fields only an assistant message carries
type Reply struct {
	Model   string
	Metrics *Metrics
}

// Message is a single turn. A nil Reply marks a user-authored message.
type Message struct {
	ID             string
	ConversationID string
	Content        string
	Timestamp      time.Time
	Reply          *Reply
}

// NewUserMessage builds a user turn
func NewUserMessage(id, conversationID, content string, at time.Time) Message {
	return Message{ID: id, ConversationID: conversationID, Content: content, Timestamp: at}
}

// NewAssistantMessage builds an assistant turn
func NewAssistantMessage(id, conversationID, content, model string, metrics *Metrics, at time.Time) Message {
	return Message{
		ID:             id,
		ConversationID: conversationID,
		Content:        content,
		Timestamp:      at,
		Reply:          &Reply{Model: model, Metrics: metrics},
	}
}

func (m Message) IsUser() bool {
	return m.Reply == nil
}

func (m Message) Role() string {
	if m.IsUser() {
		return RoleUser
	}
	return RoleAssistant
}

// Model returns the replying model, or "" for user messages
func (m Message) Model() string {
	if m.Reply == nil {
		return ""
	}
	return m.Reply.Model
}

// Metrics returns the reply metrics, or nil when there are none
func (m Message) Metrics() *Metrics {
	if m.Reply == nil {
		return nil
	}
	return m.Reply.Metrics
}

// Feedback represents a user submitted note
type Feedback struct {
	ID          string
	UserEmail   string
	Content     string
	Type        string
	ContactInfo string
	CreatedAt   time.Time
}
