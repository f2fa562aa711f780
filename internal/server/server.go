// Package server provides the HTTP API for catalogsync: run triggers,
// history queries, reverts, WebSocket and SSE event streams and Prometheus
// metrics.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/catalogsync"
	"github.com/agentstation/catalogsync/internal/metrics"
	"github.com/agentstation/catalogsync/internal/server/cache"
	"github.com/agentstation/catalogsync/internal/server/events"
	"github.com/agentstation/catalogsync/internal/server/events/adapters"
	"github.com/agentstation/catalogsync/internal/server/handlers"
	"github.com/agentstation/catalogsync/internal/server/middleware"
	"github.com/agentstation/catalogsync/internal/server/sse"
	ws "github.com/agentstation/catalogsync/internal/server/websocket"
	"github.com/agentstation/catalogsync/pkg/history"
	"github.com/agentstation/catalogsync/pkg/revert"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	client   catalogsync.Client
	metrics  *metrics.Metrics
	cache    *cache.Cache
	broker   *events.Broker
	wsHub    *ws.Hub
	sse      *sse.Broadcaster
	handlers *handlers.Handlers
	limiter  *middleware.RateLimiter
	logger   *zerolog.Logger
	config   Config
	ctx      context.Context
	cancel   context.CancelFunc
}

// New creates a server for client. The metrics collectors, when given,
// are registered on the client's hooks and served on /metrics.
func New(client catalogsync.Client, m *metrics.Metrics, cfg Config, logger *zerolog.Logger) *Server {
	broker := events.NewBroker(logger)
	wsHub := ws.NewHub(logger)
	sseBroadcaster := sse.NewBroadcaster(logger)
	broker.Subscribe(adapters.NewWebSocketSubscriber(wsHub))
	broker.Subscribe(adapters.NewSSESubscriber(sseBroadcaster))

	var respCache *cache.Cache
	if cfg.CacheTTL > 0 {
		respCache = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}

	ctx, cancel := context.WithCancel(context.Background())

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(_ *http.Request) bool {
			return true // Allow all origins for WebSocket
		},
	}

	s := &Server{
		client:   client,
		metrics:  m,
		cache:    respCache,
		broker:   broker,
		wsHub:    wsHub,
		sse:      sseBroadcaster,
		handlers: handlers.New(ctx, client, respCache, broker, wsHub, sseBroadcaster, upgrader, logger),
		logger:   logger,
		config:   cfg,
		ctx:      ctx,
		cancel:   cancel,
	}
	if cfg.RateLimit > 0 {
		s.limiter = middleware.NewRateLimiter(cfg.RateLimit, logger)
	}

	s.connectHooks()
	if m != nil {
		m.Register(client)
	}
	return s
}

// connectHooks publishes client hook events to the broker and drops cached
// history reads of tenants whose history changed.
func (s *Server) connectHooks() {
	s.client.OnRunCompleted(func(r *catalogsync.RunResult) {
		if !r.DryRun {
			s.cache.InvalidateTenant(r.Tenant)
		}
		s.broker.Publish(events.RunCompleted, r)
	})
	s.client.OnFlagRunCompleted(func(r *catalogsync.FlagResult) {
		s.broker.Publish(events.FlagRunCompleted, r)
	})
	s.client.OnRunFailed(func(tenant, runID string, err error) {
		s.broker.Publish(events.RunFailed, map[string]any{
			"tenant": tenant,
			"run_id": runID,
			"error":  err.Error(),
		})
	})
	s.client.OnVariantUpdated(func(tenant, runID string, u history.UpdateSample) {
		s.broker.Publish(events.VariantUpdated, map[string]any{
			"tenant": tenant,
			"run_id": runID,
			"update": u,
		})
	})
	s.client.OnRunReverted(func(r *revert.Result) {
		s.cache.InvalidateTenant(r.Tenant)
		s.broker.Publish(events.RunReverted, r)
	})
	s.logger.Debug().Msg("Client hooks connected to event broker")
}

// Start starts background services (broker, WebSocket hub, SSE broadcaster,
// limiter cleanup).
func (s *Server) Start() {
	go s.broker.Run(s.ctx)
	go s.wsHub.Run(s.ctx)
	go s.sse.Run(s.ctx)
	if s.limiter != nil {
		go s.limiter.Cleanup(s.ctx, 5*time.Minute)
	}
	s.logger.Debug().Msg("Background services started")
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully
// within timeout.
func (s *Server) ListenAndServe(ctx context.Context, timeout time.Duration) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	s.Start()
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.config.Addr).Msg("API server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.cancel()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if serr := s.Shutdown(shutdownCtx); serr != nil {
		err = stderrors.Join(err, serr)
	}
	return err
}

// Shutdown stops background services and waits for background runs,
// which observe the cancellation, to return.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down server background services")
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.handlers.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("Background services shut down successfully")
		return nil
	case <-ctx.Done():
		s.logger.Warn().Msg("Background services shutdown timed out")
		return ctx.Err()
	}
}

// Broker returns the event broker for publishing events.
func (s *Server) Broker() *events.Broker {
	return s.broker
}
