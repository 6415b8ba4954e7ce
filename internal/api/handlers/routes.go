package handlers

import (
	"ai-nexus/internal/app"
	"ai-nexus/internal/auth"
	userService "ai-nexus/internal/service/user"
	"net/http"
	"strings"
)

type HealthResponse struct {
	Status string `json:"status"`
}

// router registers routes on a ServeMux with CORS headers and one OPTIONS
// preflight per path.
type router struct {
	mux       *http.ServeMux
	origin    string
	preflight map[string]bool
}

func (rt *router) enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", rt.origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	}
}

// handle registers "METHOD /path"
func (rt *router) handle(pattern string, h http.HandlerFunc) {
	rt.mux.HandleFunc(pattern, rt.enableCORS(h))

	_, path, _ := strings.Cut(pattern, " ")
	if !rt.preflight[path] {
		rt.preflight[path] = true
		rt.mux.HandleFunc("OPTIONS "+path, rt.enableCORS(nil))
	}
}

// NewRouter wires every API route. metrics serves GET /metrics when non-nil.
func NewRouter(config *app.Config, tokens *auth.TokenService, metrics http.Handler) *http.ServeMux {
	origin := config.AppConfig.Server.FrontendURL
	if origin == "" {
		origin = "*"
	}
	rt := &router{mux: http.NewServeMux(), origin: origin, preflight: make(map[string]bool)}

	chat := NewChatHandlers(config)
	accounts := NewAuthHandlers(userService.NewUserService(config.DB, config, tokens))
	insights := NewInsightHandlers(config)

	// Public routes
	rt.handle("POST /api/auth/signup", accounts.SignupHandler)
	rt.handle("POST /api/auth/login", accounts.LoginHandler)
	rt.handle("GET /api/models", chat.GetModelsHandler)
	rt.handle("GET /api/analytics/leaderboard", insights.LeaderboardHandler)
	rt.handle("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		sendJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	})

	// Anonymous or authenticated
	rt.handle("POST /api/prompt/analyze", tokens.OptionalMiddleware(insights.AnalyzePromptHandler))
	rt.handle("POST /api/feedback", tokens.OptionalMiddleware(insights.SubmitFeedbackHandler))

	// Protected routes
	rt.handle("GET /api/auth/me", tokens.Middleware(accounts.MeHandler))
	rt.handle("POST /api/auth/upgrade", tokens.Middleware(accounts.UpgradeHandler))
	rt.handle("POST /api/chat/send", tokens.Middleware(chat.SendMessageHandler))
	rt.handle("GET /api/conversations", tokens.Middleware(chat.GetConversationsHandler))
	rt.handle("GET /api/conversations/{id}", tokens.Middleware(chat.GetConversationHandler))
	rt.handle("DELETE /api/conversations/{id}", tokens.Middleware(chat.DeleteConversationHandler))
	rt.handle("GET /api/analytics/personal", tokens.Middleware(insights.PersonalAnalyticsHandler))

	if metrics != nil {
		rt.mux.Handle("GET /metrics", metrics)
	}

	return rt.mux
}
