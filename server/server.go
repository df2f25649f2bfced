// Package server exposes the assistant over HTTP: a JSON API for questions,
// provider settings and chat sessions, a websocket for two-phase streaming
// updates and a Prometheus endpoint.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DachengChen/paiERP/applog"
	"github.com/DachengChen/paiERP/assistant"
	"github.com/DachengChen/paiERP/chat"
	"github.com/DachengChen/paiERP/config"
	"github.com/DachengChen/paiERP/erp"
)

// Deps are the collaborators a Server needs. Settings may be nil, in which
// case provider changes live only in memory.
type Deps struct {
	Assistant *assistant.Assistant
	Executor  *erp.Executor
	Settings  *config.Settings
	Store     chat.Store
	Config    config.ServerConfig
}

// Server is the HTTP API.
type Server struct {
	assistant *assistant.Assistant
	settings  *config.Settings
	store     chat.Store
	cfg       config.ServerConfig
	metrics   *Metrics
	router    chi.Router

	settingsMu sync.Mutex
	sessionsMu sync.Mutex
	sessions   map[string]*sync.Mutex
}

// New builds a server and hooks its metrics into the assistant and executor.
func New(d Deps) *Server {
	store := d.Store
	if store == nil {
		store = chat.NewMemoryStore()
	}
	s := &Server{
		assistant: d.Assistant,
		settings:  d.Settings,
		store:     store,
		cfg:       d.Config,
		metrics:   NewMetrics(),
		sessions:  make(map[string]*sync.Mutex),
	}
	if d.Assistant != nil {
		d.Assistant.OnAnalytics = s.metrics.ObserveQuery
	}
	if d.Executor != nil {
		d.Executor.OnFailure = s.metrics.ObserveFetchFailure
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.metrics.instrument)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if s.cfg.RateLimit > 0 {
			r.Use(newRateLimiter(s.cfg.RateLimit, s.cfg.RateBurst).middleware)
		}

		r.Post("/query", s.handleQuery)
		r.Get("/ws", s.handleWS)

		r.Get("/providers", s.handleListProviders)
		r.Put("/providers/{id}", s.handleUpdateProvider)
		r.Post("/providers/{id}/activate", s.handleActivateProvider)
		r.Put("/settings/cors-proxy", s.handleCORSProxy)

		r.Get("/sessions/{id}/messages", s.handleSessionMessages)
		r.Get("/sessions/{id}/export", s.handleSessionExport)
		r.Delete("/sessions/{id}", s.handleDeleteSession)
	})

	return r
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		applog.L().Info("server listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	applog.L().Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// lockSession serializes work on one session id.
func (s *Server) lockSession(id string) func() {
	s.sessionsMu.Lock()
	mu, ok := s.sessions[id]
	if !ok {
		mu = &sync.Mutex{}
		s.sessions[id] = mu
	}
	s.sessionsMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// withSession loads a session, runs fn and saves the transcript, even when
// fn fails.
func (s *Server) withSession(ctx context.Context, id string, fn func(*chat.Session) error) error {
	unlock := s.lockSession(id)
	defer unlock()

	msgs, err := s.store.Load(ctx, id)
	if err != nil {
		return err
	}
	sess := &chat.Session{ID: id, Transcript: chat.NewTranscript(msgs)}
	runErr := fn(sess)

	if err := s.store.Save(context.WithoutCancel(ctx), id, sess.Transcript.Messages()); err != nil {
		applog.L().Error("save session", zap.String("session_id", id), zap.Error(err))
		if runErr == nil {
			return err
		}
	}
	return runErr
}

// persistSettings writes settings to disk when they were loaded from a file.
// The caller holds settingsMu.
func (s *Server) persistSettings() error {
	if s.settings == nil || s.settings.Path() == "" {
		return nil
	}
	return s.settings.Save()
}
