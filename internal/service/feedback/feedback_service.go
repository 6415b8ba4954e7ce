package feedback

import (
	"ai-nexus/internal/apperrors"
	"ai-nexus/internal/logger"
	"ai-nexus/internal/repository/db"
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	MaxContentLength = 2000
	AnonymousEmail   = "anonymous"
	DefaultType      = "suggestion"
)

var validTypes = map[string]bool{
	"suggestion": true,
	"query":      true,
	"bug":        true,
}

type SubmitRequest struct {
	Content     string
	Type        string
	ContactInfo string
}

type FeedbackService struct {
	db  db.Database
	now func() time.Time
}

func NewFeedbackService(database db.Database) *FeedbackService {
	return &FeedbackService{
		db:  database,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Submit validates and stores a feedback note. userEmail is empty for
// anonymous submissions.
func (s *FeedbackService) Submit(ctx context.Context, req SubmitRequest, userEmail string) (*db.Feedback, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperrors.InvalidInput("feedback content cannot be empty")
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return nil, apperrors.InvalidInput("feedback content exceeds %d characters", MaxContentLength)
	}

	kind := strings.ToLower(strings.TrimSpace(req.Type))
	if kind == "" {
		kind = DefaultType
	}
	if !validTypes[kind] {
		return nil, apperrors.InvalidInput("invalid feedback type %q", req.Type)
	}

	email := userEmail
	if email == "" {
		email = AnonymousEmail
	}

	fb := &db.Feedback{
		ID:          uuid.New().String(),
		UserEmail:   email,
		Content:     content,
		Type:        kind,
		ContactInfo: strings.TrimSpace(req.ContactInfo),
		CreatedAt:   s.now(),
	}
	if err := s.db.CreateFeedback(ctx, fb); err != nil {
		return nil, fmt.Errorf("failed to save feedback: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"email": email, "type": kind}).Info("Feedback submitted")
	return fb, nil
}
