// Package credits meters the per-user balance spent on premium features.
package credits

import (
	"ai-nexus/internal/apperrors"
	"ai-nexus/internal/logger"
	"ai-nexus/internal/repository/db"
	"ai-nexus/internal/telemetry"
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Ledger debits and credits user balances through the store's atomic
// conditional updates.
type Ledger struct {
	db      db.Database
	metrics *telemetry.Metrics
}

// NewLedger creates a Ledger. metrics may be nil.
func NewLedger(database db.Database, metrics *telemetry.Metrics) *Ledger {
	return &Ledger{db: database, metrics: metrics}
}

// TryDebit takes one credit if the balance is positive. A zero balance
// yields false with a nil error; the error is reserved for store failures.
func (l *Ledger) TryDebit(ctx context.Context, email string) (bool, error) {
	ok, err := l.db.DebitCredit(ctx, email)
	if err != nil {
		l.metrics.CountDebit(telemetry.DebitError)
		if errors.Is(err, db.ErrNotFound) {
			return false, apperrors.NotFound("user %s not found", email)
		}
		return false, fmt.Errorf("failed to debit credit: %w", err)
	}

	if !ok {
		l.metrics.CountDebit(telemetry.DebitInsufficient)
		logger.Log.WithField("email", email).Info("Credit debit refused, balance exhausted")
		return false, nil
	}

	l.metrics.CountDebit(telemetry.DebitOK)
	logger.Log.WithField("email", email).Debug("Debited one credit")
	return true, nil
}

// Credit adds amount to the balance
func (l *Ledger) Credit(ctx context.Context, email string, amount int) error {
	if amount < 0 {
		return apperrors.InvalidInput("credit amount must be non-negative, got %d", amount)
	}
	if amount == 0 {
		return nil
	}

	if err := l.db.AddCredits(ctx, email, amount); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return apperrors.NotFound("user %s not found", email)
		}
		return fmt.Errorf("failed to add credits: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"email": email, "amount": amount}).Info("Credited account")
	return nil
}

// Refund returns a previously debited credit
func (l *Ledger) Refund(ctx context.Context, email string) error {
	if err := l.Credit(ctx, email, 1); err != nil {
		return err
	}
	l.metrics.CountDebit(telemetry.DebitRefund)
	return nil
}

// Balance returns the current balance
func (l *Ledger) Balance(ctx context.Context, email string) (int, error) {
	user, err := l.db.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return 0, apperrors.NotFound("user %s not found", email)
		}
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return user.Credits, nil
}
