package postgres

import (
	"ai-nexus/internal/logger"
	"ai-nexus/internal/repository/db"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const messageColumns = `m.id, m.conversation_id, m.content, m.is_user, COALESCE(m.model, ''),
	m.response_time_ms, m.word_count, m.tokens_per_second, m.created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// GetConversation retrieves a conversation with its messages in insertion order
func (p *PostgresDB) GetConversation(ctx context.Context, id string) (*db.Conversation, error) {
	var conv db.Conversation
	query := `
	SELECT id, user_id, user_email, model, created_at, updated_at
	FROM conversations
	WHERE id = $1
	`

	err := p.conn.QueryRowContext(ctx, query, id).Scan(&conv.ID, &conv.UserID, &conv.UserEmail, &conv.Model, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving conversation: %w", err)
	}

	messages, err := p.queryMessages(ctx, `SELECT `+messageColumns+` FROM messages m WHERE m.conversation_id = $1 ORDER BY m.seq ASC`, id)
	if err != nil {
		return nil, err
	}
	conv.Messages = messages

	return &conv, nil
}

// GetConversationsByUserEmail retrieves a user's conversations, most recently updated first
func (p *PostgresDB) GetConversationsByUserEmail(ctx context.Context, email string) ([]db.Conversation, error) {
	query := `
	SELECT id, user_id, user_email, model, created_at, updated_at
	FROM conversations
	WHERE user_email = $1
	ORDER BY updated_at DESC, id
	`

	rows, err := p.conn.QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("error querying conversations: %w", err)
	}
	defer rows.Close()

	var conversations []db.Conversation
	index := make(map[string]int)
	for rows.Next() {
		var conv db.Conversation
		if err := rows.Scan(&conv.ID, &conv.UserID, &conv.UserEmail, &conv.Model, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning conversation: %w", err)
		}
		index[conv.ID] = len(conversations)
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}

	messages, err := p.queryMessages(ctx, `
	SELECT `+messageColumns+`
	FROM messages m
	JOIN conversations c ON c.id = m.conversation_id
	WHERE c.user_email = $1
	ORDER BY m.seq ASC
	`, email)
	if err != nil {
		return nil, err
	}
	for _, msg := range messages {
		i := index[msg.ConversationID]
		conversations[i].Messages = append(conversations[i].Messages, msg)
	}

	return conversations, nil
}

// SaveExchange upserts the conversation and appends the new messages in one transaction
func (p *PostgresDB) SaveExchange(ctx context.Context, conv *db.Conversation, newMessages []db.Message) error {
	tx, err := p.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	upsert := `
	INSERT INTO conversations (id, user_id, user_email, model, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE SET model = EXCLUDED.model, updated_at = EXCLUDED.updated_at
	`
	if _, err := tx.ExecContext(ctx, upsert, conv.ID, conv.UserID, conv.UserEmail, conv.Model, conv.CreatedAt, conv.UpdatedAt); err != nil {
		return fmt.Errorf("error saving conversation: %w", err)
	}

	insert := `
	INSERT INTO messages (id, conversation_id, content, is_user, model, response_time_ms, word_count, tokens_per_second, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, msg := range newMessages {
		var model sql.NullString
		var responseTime sql.NullInt64
		var wordCount sql.NullInt64
		var tps sql.NullFloat64
		if !msg.IsUser() {
			model = sql.NullString{String: msg.Model(), Valid: true}
			if m := msg.Metrics(); m != nil {
				responseTime = sql.NullInt64{Int64: m.ResponseTimeMs, Valid: true}
				wordCount = sql.NullInt64{Int64: int64(m.WordCount), Valid: true}
				tps = sql.NullFloat64{Float64: m.TokensPerSecond, Valid: true}
			}
		}
		if _, err := tx.ExecContext(ctx, insert, msg.ID, conv.ID, msg.Content, msg.IsUser(), model, responseTime, wordCount, tps, msg.Timestamp); err != nil {
			return fmt.Errorf("error adding message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing exchange: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"conversation_id": conv.ID,
		"new_messages":    len(newMessages),
	}).Debug("Saved conversation exchange")
	return nil
}

// ClearConversationMessages deletes every message and bumps updated_at
func (p *PostgresDB) ClearConversationMessages(ctx context.Context, id string, at time.Time) error {
	tx, err := p.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE conversations SET updated_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("error updating conversation: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = $1`, id); err != nil {
		return fmt.Errorf("error deleting messages: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing clear: %w", err)
	}

	logger.Log.WithField("conversation_id", id).Info("Cleared conversation messages")
	return nil
}

func (p *PostgresDB) queryMessages(ctx context.Context, query string, args ...any) ([]db.Message, error) {
	rows, err := p.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying messages: %w", err)
	}
	defer rows.Close()

	var messages []db.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return messages, nil
}

func scanMessage(row rowScanner) (db.Message, error) {
	var (
		msg          db.Message
		isUser       bool
		model        string
		responseTime sql.NullInt64
		wordCount    sql.NullInt64
		tps          sql.NullFloat64
	)
	if err := row.Scan(&msg.ID, &msg.ConversationID, &msg.Content, &isUser, &model, &responseTime, &wordCount, &tps, &msg.Timestamp); err != nil {
		return db.Message{}, err
	}
	if isUser {
		return msg, nil
	}

	msg.Reply = &db.Reply{Model: model}
	if responseTime.Valid {
		msg.Reply.Metrics = &db.Metrics{
			ResponseTimeMs:  responseTime.Int64,
			WordCount:       int(wordCount.Int64),
			TokensPerSecond: tps.Float64,
		}
	}
	return msg, nil
}
