package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

const (
	minPasswordLength = 6
	maxPasswordLength = 72 // bcrypt input limit in bytes
	maxFullNameLength = 100
	maxEmailLength    = 255
)

// AuthRequestValidator validates authentication-related requests
type AuthRequestValidator struct{}

// NewAuthRequestValidator creates a new AuthRequestValidator
func NewAuthRequestValidator() *AuthRequestValidator {
	return &AuthRequestValidator{}
}

// ValidateEmail validates an email address (basic validation)
func (v *AuthRequestValidator) ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email cannot be empty")
	}

	if len(email) > maxEmailLength {
		return fmt.Errorf("email must be at most %d characters long, got %d", maxEmailLength, len(email))
	}

	if !emailRegex.MatchString(email) {
		return errors.New("invalid email format")
	}

	return nil
}

// ValidatePassword validates a password
func (v *AuthRequestValidator) ValidatePassword(password string) error {
	if password == "" {
		return errors.New("password cannot be empty")
	}

	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters long, got %d", minPasswordLength, len(password))
	}

	if len(password) > maxPasswordLength {
		return fmt.Errorf("password must be at most %d characters long, got %d", maxPasswordLength, len(password))
	}

	return nil
}

// ValidateFullName validates the optional display name
func (v *AuthRequestValidator) ValidateFullName(name string) error {
	if len([]rune(name)) > maxFullNameLength {
		return fmt.Errorf("full name must be at most %d characters long", maxFullNameLength)
	}
	return nil
}

// ValidateLoginRequest validates a login request
func (v *AuthRequestValidator) ValidateLoginRequest(email, password string) error {
	if strings.TrimSpace(email) == "" {
		return errors.New("email cannot be empty")
	}

	if password == "" {
		return errors.New("password cannot be empty")
	}

	return nil
}

// ValidateSignupRequest validates a signup request
func (v *AuthRequestValidator) ValidateSignupRequest(email, password, fullName string) error {
	if err := v.ValidateEmail(email); err != nil {
		return err
	}

	if err := v.ValidatePassword(password); err != nil {
		return err
	}

	if err := v.ValidateFullName(fullName); err != nil {
		return err
	}

	return nil
}
