package postgres

import (
	"ai-nexus/internal/repository/db"
	"context"
	"fmt"

	"github.com/google/uuid"
)

// GetAssistantMessagesByOwnerEmail returns assistant replies from the user's conversations
func (p *PostgresDB) GetAssistantMessagesByOwnerEmail(ctx context.Context, email string) ([]db.Message, error) {
	return p.queryMessages(ctx, `
	SELECT `+messageColumns+`
	FROM messages m
	JOIN conversations c ON c.id = m.conversation_id
	WHERE c.user_email = $1 AND m.is_user = FALSE
	ORDER BY m.created_at ASC, m.seq ASC
	`, email)
}

// GetAllAssistantMessages returns every assistant reply
func (p *PostgresDB) GetAllAssistantMessages(ctx context.Context) ([]db.Message, error) {
	return p.queryMessages(ctx, `
	SELECT `+messageColumns+`
	FROM messages m
	WHERE m.is_user = FALSE
	ORDER BY m.created_at ASC, m.seq ASC
	`)
}

// CreateFeedback stores a feedback entry
func (p *PostgresDB) CreateFeedback(ctx context.Context, feedback *db.Feedback) error {
	if feedback.ID == "" {
		feedback.ID = uuid.New().String()
	}

	query := `
	INSERT INTO feedback (id, user_email, content, type, contact_info, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := p.conn.ExecContext(ctx, query, feedback.ID, feedback.UserEmail, feedback.Content, feedback.Type, feedback.ContactInfo, feedback.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating feedback: %w", err)
	}
	return nil
}
