package postgres

import (
	"ai-nexus/internal/logger"
	"ai-nexus/internal/repository/db"
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CreateUser inserts a user. The password must already be hashed.
func (p *PostgresDB) CreateUser(ctx context.Context, user *db.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	query := `
	INSERT INTO users (id, email, password_hash, full_name, credits, is_premium)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING created_at
	`

	err := p.conn.QueryRowContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.FullName, user.Credits, user.IsPremium,
	).Scan(&user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return db.ErrAlreadyExists
		}
		return fmt.Errorf("error creating user: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"email": user.Email, "user_id": user.ID}).Info("Created new user")
	return nil
}

// GetUserByEmail retrieves a user by email
func (p *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	var user db.User
	query := `
	SELECT id, email, password_hash, full_name, credits, is_premium, created_at
	FROM users WHERE email = $1
	`

	err := p.conn.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.Credits, &user.IsPremium, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}

	return &user, nil
}

// SetPremium updates the premium flag
func (p *PostgresDB) SetPremium(ctx context.Context, email string, premium bool) error {
	res, err := p.conn.ExecContext(ctx, `UPDATE users SET is_premium = $2 WHERE email = $1`, email, premium)
	if err != nil {
		return fmt.Errorf("error updating premium flag: %w", err)
	}
	return requireRow(res)
}

// DebitCredit takes one credit in a single conditional update so concurrent
// callers can never drive the balance below zero.
func (p *PostgresDB) DebitCredit(ctx context.Context, email string) (bool, error) {
	res, err := p.conn.ExecContext(ctx, `UPDATE users SET credits = credits - 1 WHERE email = $1 AND credits > 0`, email)
	if err != nil {
		return false, fmt.Errorf("error debiting credit: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading debit result: %w", err)
	}
	if n == 1 {
		return true, nil
	}

	var exists bool
	if err := p.conn.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking user: %w", err)
	}
	if !exists {
		return false, db.ErrNotFound
	}
	return false, nil
}

// AddCredits increases the balance by amount
func (p *PostgresDB) AddCredits(ctx context.Context, email string, amount int) error {
	res, err := p.conn.ExecContext(ctx, `UPDATE users SET credits = credits + $2 WHERE email = $1`, email, amount)
	if err != nil {
		return fmt.Errorf("error adding credits: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading update result: %w", err)
	}
	if n == 0 {
		return db.ErrNotFound
	}
	return nil
}
