package server

import (
	"net/http"
	"slices"

	"github.com/agentstation/catalogsync/internal/server/handlers"
	"github.com/agentstation/catalogsync/internal/server/middleware"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux, s.handlers)
	return s.applyMiddleware(mux)
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux, h *handlers.Handlers) {
	prefix := s.config.PathPrefix

	// Public health endpoints (no auth required)
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET "+prefix+"/health", h.HandleHealth)
	mux.HandleFunc("GET "+prefix+"/ready", h.HandleReady)

	// Tenants and runs
	mux.HandleFunc("GET "+prefix+"/tenants", h.HandleListTenants)
	mux.HandleFunc("POST "+prefix+"/tenants/{tenant}/sync", h.HandleSync)
	mux.HandleFunc("POST "+prefix+"/tenants/{tenant}/flags", h.HandleSyncFlags)
	mux.HandleFunc("GET "+prefix+"/tenants/{tenant}/runs", h.HandleListRuns)
	mux.HandleFunc("GET "+prefix+"/tenants/{tenant}/runs/{runID}", h.HandleGetRun)
	mux.HandleFunc("POST "+prefix+"/tenants/{tenant}/runs/{runID}/revert", h.HandleRevert)

	// Admin
	mux.HandleFunc("GET "+prefix+"/stats", h.HandleStats)

	// Real-time events
	mux.HandleFunc("GET "+prefix+"/events/ws", h.HandleWebSocket)
	mux.HandleFunc("GET "+prefix+"/events/stream", h.HandleSSE)

	if s.config.MetricsEnabled && s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

// applyMiddleware wraps handler with middleware chain.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	cfg := s.config

	if s.limiter != nil {
		handler = middleware.RateLimit(s.limiter)(handler)
	}

	if cfg.AuthEnabled {
		authConfig := middleware.DefaultAuthConfig()
		authConfig.Enabled = true
		authConfig.APIKey = cfg.APIKey
		if cfg.AuthHeader != "" {
			authConfig.HeaderName = cfg.AuthHeader
		}
		authConfig.PublicPaths = []string{"/health", cfg.PathPrefix + "/health", cfg.PathPrefix + "/ready"}
		handler = middleware.Auth(authConfig, s.logger)(handler)
	}

	// CORS runs before auth so preflight requests need no key
	if cfg.CORSEnabled {
		corsConfig := middleware.DefaultCORSConfig()
		if len(cfg.CORSOrigins) > 0 {
			corsConfig.AllowedOrigins = cfg.CORSOrigins
		} else {
			corsConfig.AllowAll = true
		}
		if cfg.AuthHeader != "" && !slices.Contains(corsConfig.AllowedHeaders, cfg.AuthHeader) {
			corsConfig.AllowedHeaders = append(corsConfig.AllowedHeaders, cfg.AuthHeader)
		}
		handler = middleware.CORS(corsConfig)(handler)
	}

	// Logging and recovery (always enabled)
	return middleware.Chain(
		middleware.Recovery(s.logger),
		middleware.Logger(s.logger),
	)(handler)
}
