package auth

import (
	"ai-nexus/internal/config"
	"ai-nexus/internal/logger"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const UserContextKey contextKey = "user"

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// sendError sends a standardized JSON error response
func sendError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errResp := ErrorResponse{
		Code:    status,
		Message: message,
	}
	if err != nil {
		errResp.Error = err.Error()
	}
	json.NewEncoder(w).Encode(errResp)
}

// TokenService issues and verifies HS256 tokens carrying the user's email
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(cfg config.AuthConfig) *TokenService {
	ttl := cfg.TokenExpiration
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{secret: cfg.JWTSecret, ttl: ttl, now: time.Now}
}

func (s *TokenService) GenerateToken(email string) (string, error) {
	now := s.now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Email == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// bearerToken returns the token of an "Authorization: Bearer <token>"
// header. ok is false when the header is absent.
func bearerToken(r *http.Request) (token string, ok bool, err error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false, nil
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", true, errors.New("invalid authorization header format")
	}
	return parts[1], true, nil
}

// Middleware rejects requests without a valid token and stores the caller's
// email under UserContextKey.
func (s *TokenService) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, present, err := bearerToken(r)
		if !present {
			sendError(w, http.StatusUnauthorized, "Missing authorization header", nil)
			return
		}
		if err != nil {
			sendError(w, http.StatusUnauthorized, "Invalid authorization header format", nil)
			return
		}

		claims, err := s.ValidateToken(token)
		if err != nil {
			logger.Log.WithError(err).Debug("Rejected token")
			sendError(w, http.StatusUnauthorized, "Invalid token", err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims.Email)))
	}
}

// OptionalMiddleware lets anonymous requests through. A token that is
// present must still be valid.
func (s *TokenService) OptionalMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, present, err := bearerToken(r)
		if !present {
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			sendError(w, http.StatusUnauthorized, "Invalid authorization header format", nil)
			return
		}

		claims, err := s.ValidateToken(token)
		if err != nil {
			sendError(w, http.StatusUnauthorized, "Invalid token", err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims.Email)))
	}
}

// WithUser returns a copy of ctx carrying the authenticated email
func WithUser(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, UserContextKey, email)
}

// UserEmail returns the authenticated email, or "" for anonymous requests
func UserEmail(ctx context.Context) string {
	email, _ := ctx.Value(UserContextKey).(string)
	return email
}
