package handlers

import (
	"ai-nexus/internal/auth"
	userService "ai-nexus/internal/service/user"
	"ai-nexus/pkg/validation"
	"net/http"
)

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthHandlers serves account endpoints
type AuthHandlers struct {
	validator   *validation.AuthRequestValidator
	userService *userService.UserService
}

func NewAuthHandlers(users *userService.UserService) *AuthHandlers {
	return &AuthHandlers{
		validator:   validation.NewAuthRequestValidator(),
		userService: users,
	}
}

// SignupHandler creates a new local account
func (h *AuthHandlers) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(r, &req, false); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.validator.ValidateSignupRequest(req.Email, req.Password, req.FullName); err != nil {
		sendError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	resp, err := h.userService.Signup(r.Context(), userService.SignupRequest{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		sendServiceError(w, r, "Error creating user", err)
		return
	}
	sendJSON(w, http.StatusCreated, resp)
}

// LoginHandler authenticates user and returns JWT token
func (h *AuthHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req, false); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.validator.ValidateLoginRequest(req.Email, req.Password); err != nil {
		sendError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	resp, err := h.userService.Login(r.Context(), userService.LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		sendServiceError(w, r, "Error logging in", err)
		return
	}
	sendJSON(w, http.StatusOK, resp)
}

func (h *AuthHandlers) MeHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := h.userService.Me(r.Context(), auth.UserEmail(r.Context()))
	if err != nil {
		sendServiceError(w, r, "Error loading account", err)
		return
	}
	sendJSON(w, http.StatusOK, resp)
}

func (h *AuthHandlers) UpgradeHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := h.userService.Upgrade(r.Context(), auth.UserEmail(r.Context()))
	if err != nil {
		sendServiceError(w, r, "Error upgrading account", err)
		return
	}
	sendJSON(w, http.StatusOK, resp)
}
