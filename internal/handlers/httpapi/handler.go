// Package httpapi exposes the wizard, interpret and auth services over HTTP
package httpapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/KirkDiggler/narrative-service/internal/services/auth"
	"github.com/KirkDiggler/narrative-service/internal/services/interpret"
	"github.com/KirkDiggler/narrative-service/internal/services/wizard"
)

// Config holds the services and options behind the HTTP surface
type Config struct {
	Wizard         wizard.Service    // Required
	Interpret      interpret.Service // Required
	Auth           auth.Service      // Optional, /auth routes answer 503 without it
	Logger         *zap.Logger       // Optional
	AllowedOrigins []string          // Optional, "*" allows every origin
	RateLimit      *RateLimitConfig  // Optional, no limit when nil or non-positive
}

// Handler serves the HTTP routes
type Handler struct {
	wizard    wizard.Service
	interpret interpret.Service
	auth      auth.Service
	logger    *zap.Logger
	validate  *validator.Validate
}

// NewHandler builds the routed and wrapped http.Handler
func NewHandler(cfg *Config) http.Handler {
	if cfg.Wizard == nil {
		panic("wizard service is required")
	}
	if cfg.Interpret == nil {
		panic("interpret service is required")
	}

	h := &Handler{
		wizard:    cfg.Wizard,
		interpret: cfg.Interpret,
		auth:      cfg.Auth,
		logger:    cfg.Logger,
		validate:  newValidator(),
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}

	limited := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimit != nil && cfg.RateLimit.RPS > 0 && cfg.RateLimit.Burst > 0 {
		limited = RateLimitMiddleware(cfg.RateLimit)
	}

	mux := http.NewServeMux()
	mux.Handle("POST /character-wizard/step", limited(http.HandlerFunc(h.handleWizardStep)))
	mux.HandleFunc("GET /character-wizard/sessions/{id}", h.handleWizardSession)
	mux.Handle("POST /character-wizard/finalize", limited(http.HandlerFunc(h.handleWizardFinalize)))
	mux.Handle("POST /interpret", limited(http.HandlerFunc(h.handleInterpret)))
	mux.HandleFunc("POST /auth/google", h.handleGoogleLogin)
	mux.HandleFunc("GET /auth/session", h.handleSession)
	mux.HandleFunc("GET /auth/health", h.handleHealth)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /{$}", h.handleHealth)

	return Chain(mux,
		RecoverMiddleware(h.logger),
		LoggingMiddleware(h.logger),
		CORSMiddleware(cfg.AllowedOrigins),
	)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
