package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aviary-ai/aviary/internal/agent"
	"github.com/aviary-ai/aviary/internal/auth"
	"github.com/aviary-ai/aviary/internal/chat"
	"github.com/aviary-ai/aviary/internal/conversation"
	"github.com/aviary-ai/aviary/internal/files"
	"github.com/aviary-ai/aviary/internal/project"
	"github.com/aviary-ai/aviary/internal/prompt"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger        *slog.Logger
	AuthService   *auth.Service         // Required
	Projects      *project.Store        // Required
	Agents        *agent.Store          // Required
	Prompts       *prompt.Store         // Required
	Conversations *conversation.Store   // Required
	Orchestrator  *chat.Orchestrator    // Required
	Files         *files.Service        // Optional: nil disables file passthrough
	Pool          *pgxpool.Pool         // Optional: nil disables pool stats in /ready
	CORSOrigins   []string              // Allowed origins for CORS
	IsDev         bool                  // Disables HSTS
	TrustProxy    bool                  // Trust X-Real-IP/X-Forwarded-For headers
	RateBurst     int                   // Rate limiter burst size per IP (0 = default 60)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a new API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	switch {
	case cfg.AuthService == nil:
		return nil, errors.New("auth service is required")
	case cfg.Projects == nil || cfg.Agents == nil || cfg.Prompts == nil:
		return nil, errors.New("project, agent and prompt stores are required")
	case cfg.Conversations == nil:
		return nil, errors.New("conversation store is required")
	case cfg.Orchestrator == nil:
		return nil, errors.New("chat orchestrator is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ah := &authHandler{service: cfg.AuthService, logger: logger}
	ph := &projectHandler{store: cfg.Projects, logger: logger}
	agh := &agentHandler{agents: cfg.Agents, prompts: cfg.Prompts, logger: logger}
	ch := &conversationHandler{agents: cfg.Agents, conversations: cfg.Conversations, logger: logger}
	th := &chatHandler{orchestrator: cfg.Orchestrator, logger: logger}

	mux := http.NewServeMux()

	// Accounts
	mux.HandleFunc("POST /api/auth/register", ah.register)
	mux.HandleFunc("POST /api/auth/login", ah.login)
	mux.HandleFunc("GET /api/auth/me", ah.me)
	mux.HandleFunc("POST /api/auth/forgot-password", ah.forgotPassword)
	mux.HandleFunc("POST /api/auth/reset-password", ah.resetPassword)

	// Projects
	mux.HandleFunc("POST /api/projects", ph.create)
	mux.HandleFunc("GET /api/projects", ph.list)
	mux.HandleFunc("GET /api/projects/{id}", ph.get)

	// Agents and instruction blocks
	mux.HandleFunc("POST /api/projects/{projectID}/agents", agh.create)
	mux.HandleFunc("GET /api/projects/{projectID}/agents", agh.list)
	mux.HandleFunc("GET /api/agents/{id}", agh.get)
	mux.HandleFunc("POST /api/agents/{agentID}/prompts", agh.createPrompt)
	mux.HandleFunc("GET /api/agents/{agentID}/prompts", agh.listPrompts)

	// Conversations
	mux.HandleFunc("GET /api/agents/{agentID}/conversations", ch.list)
	mux.HandleFunc("GET /api/conversations/{id}/messages", ch.messages)

	// Chat turns (SSE)
	mux.HandleFunc("POST /api/chat/agents/{agentID}", th.send)

	// File passthrough routes are registered only when a service is provided.
	if cfg.Files != nil {
		fh := &fileHandler{service: cfg.Files, logger: logger}
		mux.HandleFunc("POST /api/files", fh.upload)
		mux.HandleFunc("GET /api/files", fh.list)
		mux.HandleFunc("DELETE /api/files/{id}", fh.delete)
	}

	// Rate limiter: per-IP token bucket (1 token/sec refill)
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	// Build middleware stack (outermost first):
	//   Recovery → Logging → CORS → RateLimit → Auth → Routes
	// CORS must be before RateLimit so preflight OPTIONS gets proper CORS headers.
	var handler http.Handler = mux
	handler = authMiddleware(cfg.AuthService, logger)(handler)
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = recoveryMiddleware(logger)(handler)

	isDev := cfg.IsDev
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w, isDev)
		handler.ServeHTTP(w, r)
	})

	// Top-level mux keeps health probes out of the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health)
	topMux.Handle("GET /ready", readiness(cfg.Pool))
	topMux.Handle("/", final)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
