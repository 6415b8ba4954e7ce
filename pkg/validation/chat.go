package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MaxMessageLength        = 32000
	MaxPromptLength         = 10000
	MaxConversationIDLength = 64
)

// ChatRequestValidator validates chat and prompt requests. knownModel
// reports whether a model id is in the catalogue.
type ChatRequestValidator struct {
	knownModel func(string) bool
}

// NewChatRequestValidator creates a new ChatRequestValidator
func NewChatRequestValidator(knownModel func(string) bool) *ChatRequestValidator {
	return &ChatRequestValidator{knownModel: knownModel}
}

// ValidateMessage validates a chat message
func (v *ChatRequestValidator) ValidateMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return errors.New("message cannot be empty")
	}
	if n := utf8.RuneCountInString(message); n > MaxMessageLength {
		return fmt.Errorf("message must be at most %d characters long, got %d", MaxMessageLength, n)
	}
	return nil
}

// ValidateModel validates the model id. Empty selects the default model.
func (v *ChatRequestValidator) ValidateModel(model string) error {
	if model == "" || v.knownModel == nil {
		return nil
	}
	if !v.knownModel(model) {
		return fmt.Errorf("unknown model %q", model)
	}
	return nil
}

// ValidateConversationID validates an optional conversation id
func (v *ChatRequestValidator) ValidateConversationID(id string) error {
	if len(id) > MaxConversationIDLength {
		return fmt.Errorf("conversationId must be at most %d characters long, got %d", MaxConversationIDLength, len(id))
	}
	if strings.ContainsAny(id, " \t\r\n/") {
		return errors.New("conversationId contains invalid characters")
	}
	return nil
}

// ValidateChatRequest validates a complete chat request
func (v *ChatRequestValidator) ValidateChatRequest(message, model, conversationID string) error {
	if err := v.ValidateMessage(message); err != nil {
		return err
	}

	if err := v.ValidateModel(model); err != nil {
		return err
	}

	if err := v.ValidateConversationID(conversationID); err != nil {
		return err
	}

	return nil
}

// ValidatePrompt validates a prompt submitted for analysis
func (v *ChatRequestValidator) ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return errors.New("prompt cannot be empty")
	}
	if n := utf8.RuneCountInString(prompt); n > MaxPromptLength {
		return fmt.Errorf("prompt must be at most %d characters long, got %d", MaxPromptLength, n)
	}
	return nil
}
