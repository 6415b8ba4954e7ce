package auth

import (
	"ai-nexus/internal/config"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService() *TokenService {
	return NewTokenService(config.AuthConfig{
		JWTSecret:       []byte("0123456789abcdef0123456789abcdef"),
		TokenExpiration: time.Hour,
	})
}

func TestTokenRoundTrip(t *testing.T) {
	s := newTestTokenService()

	token, err := s.GenerateToken("user@example.com")
	require.NoError(t, err)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "user@example.com", claims.Subject)
}

func TestValidateToken_Rejects(t *testing.T) {
	s := newTestTokenService()

	other := NewTokenService(config.AuthConfig{JWTSecret: []byte("another-secret-another-secret-!!")})
	foreign, err := other.GenerateToken("user@example.com")
	require.NoError(t, err)

	expiredIssuer := newTestTokenService()
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredIssuer.GenerateToken("user@example.com")
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Email: "user@example.com"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", foreign},
		{"expired", expired},
		{"alg none", unsigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ValidateToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func captureUser(seen *string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*seen = UserEmail(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}
}

func TestMiddleware(t *testing.T) {
	s := newTestTokenService()
	token, err := s.GenerateToken("user@example.com")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		email  string
	}{
		{"valid", "Bearer " + token, http.StatusNoContent, "user@example.com"},
		{"missing", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized, ""},
		{"bad token", "Bearer nope", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			s.Middleware(captureUser(&seen))(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.email, seen)
		})
	}
}

func TestOptionalMiddleware(t *testing.T) {
	s := newTestTokenService()
	token, err := s.GenerateToken("user@example.com")
	require.NoError(t, err)

	var seen string
	rec := httptest.NewRecorder()
	s.OptionalMiddleware(captureUser(&seen))(rec, httptest.NewRequest(http.MethodPost, "/api/feedback", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "", seen, "anonymous callers pass through")

	req := httptest.NewRequest(http.MethodPost, "/api/feedback", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	s.OptionalMiddleware(captureUser(&seen))(rec, req)
	assert.Equal(t, "user@example.com", seen)

	req = httptest.NewRequest(http.MethodPost, "/api/feedback", nil)
	req.Header.Set("Authorization", "Bearer broken")
	rec = httptest.NewRecorder()
	s.OptionalMiddleware(captureUser(&seen))(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
