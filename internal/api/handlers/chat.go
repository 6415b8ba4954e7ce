package handlers

import (
	"ai-nexus/internal/app"
	"ai-nexus/internal/auth"
	"ai-nexus/internal/config"
	"ai-nexus/internal/logger"
	"ai-nexus/internal/repository/db"
	chatService "ai-nexus/internal/service/chat"
	conversationService "ai-nexus/internal/service/conversation"
	"ai-nexus/pkg/validation"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Request/Response types

type ChatRequest struct {
	Message        string `json:"message"`
	Model          string `json:"aiModel,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
	ExpertAdvice   bool   `json:"isExpertAdvice,omitempty"`
}

type ChatResponse struct {
	ID             string     `json:"id"`
	Content        string     `json:"content"`
	Model          string     `json:"aiModel"`
	ConversationID string     `json:"conversationId"`
	Timestamp      time.Time  `json:"timestamp"`
	Metrics        db.Metrics `json:"metrics"`
}

type MessageData struct {
	ID        string      `json:"id"`
	Role      string      `json:"role"`
	Content   string      `json:"content"`
	IsUser    bool        `json:"isUser"`
	Model     string      `json:"aiModel,omitempty"`
	Metrics   *db.Metrics `json:"metrics,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type ConversationData struct {
	ID        string        `json:"id"`
	Model     string        `json:"aiModel"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Messages  []MessageData `json:"messages"`
}

type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ModelsResponse struct {
	Models []config.Model `json:"models"`
}

// ChatHandlers serves exchanges, conversation history and the model list
type ChatHandlers struct {
	config              *app.Config
	validator           *validation.ChatRequestValidator
	chatService         *chatService.ChatService
	conversationService *conversationService.ConversationService
}

// NewChatHandlers creates a new ChatHandlers with service layer
func NewChatHandlers(config *app.Config) *ChatHandlers {
	return &ChatHandlers{
		config:              config,
		validator:           validation.NewChatRequestValidator(config.ModelsConfig().IsValidModel),
		chatService:         chatService.NewChatService(config.DB, config),
		conversationService: conversationService.NewConversationService(config.DB, config),
	}
}

// SendMessageHandler runs one exchange and returns the assistant reply
func (ch *ChatHandlers) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	email := auth.UserEmail(r.Context())

	var req ChatRequest
	if err := decodeJSON(r, &req, false); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := ch.validator.ValidateChatRequest(req.Message, req.Model, req.ConversationID); err != nil {
		sendError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	logger.Log.WithFields(logrus.Fields{
		"email":           email,
		"model":           req.Model,
		"conversation_id": req.ConversationID,
		"expert":          req.ExpertAdvice,
		"message_chars":   len(req.Message),
	}).Info("Chat request received")

	response, err := ch.chatService.SendMessage(r.Context(), chatService.SendMessageRequest{
		Message:        req.Message,
		Model:          req.Model,
		ConversationID: req.ConversationID,
		ExpertAdvice:   req.ExpertAdvice,
	}, email)
	if err != nil {
		sendServiceError(w, r, "Error processing message", err)
		return
	}

	sendJSON(w, http.StatusOK, ChatResponse{
		ID:             response.ID,
		Content:        response.Content,
		Model:          response.Model,
		ConversationID: response.ConversationID,
		Timestamp:      response.Timestamp,
		Metrics:        response.Metrics,
	})
}

// GetConversationsHandler returns all conversations for the authenticated user
func (ch *ChatHandlers) GetConversationsHandler(w http.ResponseWriter, r *http.Request) {
	email := auth.UserEmail(r.Context())

	conversations, err := ch.conversationService.ListConversations(r.Context(), email)
	if err != nil {
		sendServiceError(w, r, "Error retrieving conversations", err)
		return
	}

	out := make([]ConversationData, 0, len(conversations))
	for i := range conversations {
		out = append(out, toConversationData(&conversations[i]))
	}
	sendJSON(w, http.StatusOK, out)
}

// GetConversationHandler returns one conversation with its messages
func (ch *ChatHandlers) GetConversationHandler(w http.ResponseWriter, r *http.Request) {
	email := auth.UserEmail(r.Context())
	convID := r.PathValue("id")

	conv, err := ch.conversationService.GetConversation(r.Context(), convID, email)
	if err != nil {
		sendServiceError(w, r, "Error retrieving conversation", err)
		return
	}
	sendJSON(w, http.StatusOK, toConversationData(conv))
}

// DeleteConversationHandler clears the messages of a conversation
func (ch *ChatHandlers) DeleteConversationHandler(w http.ResponseWriter, r *http.Request) {
	email := auth.UserEmail(r.Context())
	convID := r.PathValue("id")
	logger.Log.WithFields(logrus.Fields{"email": email, "conversation_id": convID}).Info("Clear conversation request")

	if err := ch.conversationService.ClearConversation(r.Context(), convID, email); err != nil {
		sendServiceError(w, r, "Error clearing conversation", err)
		return
	}

	sendJSON(w, http.StatusOK, DeleteResponse{
		Success: true,
		Message: "Conversation cleared successfully",
	})
}

// GetModelsHandler returns the list of available models
func (ch *ChatHandlers) GetModelsHandler(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, ModelsResponse{
		Models: ch.config.ModelsConfig().GetAvailableModels(),
	})
}

func toConversationData(conv *db.Conversation) ConversationData {
	msgs := make([]MessageData, 0, len(conv.Messages))
	for _, msg := range conv.Messages {
		msgs = append(msgs, MessageData{
			ID:        msg.ID,
			Role:      msg.Role(),
			Content:   msg.Content,
			IsUser:    msg.IsUser(),
			Model:     msg.Model(),
			Metrics:   msg.Metrics(),
			Timestamp: msg.Timestamp,
		})
	}
	return ConversationData{
		ID:        conv.ID,
		Model:     conv.Model,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
		Messages:  msgs,
	}
}
