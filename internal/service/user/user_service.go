package user

import (
	"ai-nexus/internal/app"
	"ai-nexus/internal/apperrors"
	"ai-nexus/internal/auth"
	"ai-nexus/internal/logger"
	"ai-nexus/internal/repository/db"
	"ai-nexus/internal/service/credits"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type SignupRequest struct {
	Email    string
	Password string
	FullName string
}

type LoginRequest struct {
	Email    string
	Password string
}

// AccountResponse describes an account. Token is only set by Signup and Login.
type AccountResponse struct {
	Token     string `json:"token,omitempty"`
	Email     string `json:"email"`
	FullName  string `json:"fullName"`
	IsPremium bool   `json:"isPremium"`
	Credits   int    `json:"credits"`
}

// UserService manages accounts, sessions and plan upgrades
type UserService struct {
	db     db.Database
	config *app.Config
	tokens *auth.TokenService
	ledger *credits.Ledger
}

// NewUserService creates a new UserService
func NewUserService(database db.Database, config *app.Config, tokens *auth.TokenService) *UserService {
	return &UserService{
		db:     database,
		config: config,
		tokens: tokens,
		ledger: credits.NewLedger(database, config.Telemetry),
	}
}

// Signup creates an account with the signup grant and returns a session
func (s *UserService) Signup(ctx context.Context, req SignupRequest) (*AccountResponse, error) {
	email := normalizeEmail(req.Email)
	if req.Password == "" {
		return nil, apperrors.InvalidInput("Password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &db.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Credits:      s.config.AppConfig.Credits.SignupCredits,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.db.CreateUser(ctx, user); err != nil {
		if errors.Is(err, db.ErrAlreadyExists) {
			return nil, apperrors.Conflict("Email already in use")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.Log.WithField("email", email).Info("User signed up")
	return s.session(user)
}

// Login checks the password and returns a session
func (s *UserService) Login(ctx context.Context, req LoginRequest) (*AccountResponse, error) {
	email := normalizeEmail(req.Email)
	user, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			logger.Log.WithField("email", email).Info("Login failed: unknown user")
			return nil, apperrors.Unauthorized("Invalid credentials")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		logger.Log.WithField("email", email).Info("Login failed: invalid password")
		return nil, apperrors.Unauthorized("Invalid credentials")
	}

	logger.Log.WithField("email", email).Info("User logged in")
	return s.session(user)
}

// Me returns the caller's account without a token
func (s *UserService) Me(ctx context.Context, email string) (*AccountResponse, error) {
	user, err := s.getUser(ctx, email)
	if err != nil {
		return nil, err
	}
	return account(user), nil
}

// Upgrade switches the account to premium and grants the upgrade bonus
func (s *UserService) Upgrade(ctx context.Context, email string) (*AccountResponse, error) {
	if _, err := s.getUser(ctx, email); err != nil {
		return nil, err
	}

	if err := s.db.SetPremium(ctx, email, true); err != nil {
		return nil, fmt.Errorf("failed to upgrade user: %w", err)
	}
	if err := s.ledger.Credit(ctx, email, s.config.AppConfig.Credits.UpgradeBonus); err != nil {
		return nil, err
	}

	logger.Log.WithField("email", email).Info("User upgraded to premium")
	return s.Me(ctx, email)
}

func (s *UserService) getUser(ctx context.Context, email string) (*db.User, error) {
	user, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperrors.NotFound("user %s not found", email)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (s *UserService) session(user *db.User) (*AccountResponse, error) {
	token, err := s.tokens.GenerateToken(user.Email)
	if err != nil {
		return nil, err
	}
	resp := account(user)
	resp.Token = token
	return resp, nil
}

func account(user *db.User) *AccountResponse {
	return &AccountResponse{
		Email:     user.Email,
		FullName:  user.FullName,
		IsPremium: user.IsPremium,
		Credits:   user.Credits,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
