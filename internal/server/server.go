// Package server wires the HTTP API: research runs, throttle stats, health
// probes, version, and metrics.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/canvashq/canvas/internal/config"
	"github.com/canvashq/canvas/internal/core/cache"
	"github.com/canvashq/canvas/internal/core/store"
	"github.com/canvashq/canvas/internal/core/throttle"
	apperrors "github.com/canvashq/canvas/internal/errors"
	"github.com/canvashq/canvas/internal/observability"
	"github.com/canvashq/canvas/internal/research"
	"github.com/canvashq/canvas/internal/server/handlers"
	servermw "github.com/canvashq/canvas/internal/server/middleware"
)

// Deps carries the shared application state the routes serve from.
type Deps struct {
	Engine   *research.Engine
	Throttle *throttle.Registry
	Cache    *cache.Cache
	Store    *store.Store
	Version  string
}

// Server is the HTTP server.
type Server struct {
	router *chi.Mux
	server *http.Server
	cfg    config.ServerConfig
	deps   Deps
	health *handlers.HealthManager
}

// New creates an HTTP server instance bound to the supplied dependencies.
func New(cfg config.ServerConfig, deps Deps) *Server {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)

	// Custom middleware in order: RequestID → Metrics → Recovery.
	r.Use(servermw.RequestID)
	r.Use(servermw.RequestMetrics)
	r.Use(servermw.Recovery)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewNotFoundError("The requested resource was not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewMethodNotAllowedError("The requested method is not allowed for this resource"))
	})

	s := &Server{
		router: r,
		cfg:    cfg,
		deps:   deps,
		health: newHealthManager(deps),
	}

	handlers.SetHTTPErrorResponder(HandleError)

	s.registerRoutes()
	return s
}

func newHealthManager(deps Deps) *handlers.HealthManager {
	hm := handlers.NewHealthManager(deps.Version)

	if deps.Store != nil {
		hm.RegisterChecker("store", handlers.HealthCheckFunc(func(ctx context.Context) error {
			return deps.Store.DB.PingContext(ctx)
		}))
	}
	if deps.Engine != nil {
		hm.RegisterChecker("engine", handlers.HealthCheckFunc(func(ctx context.Context) error {
			if deps.Engine.Search == nil {
				return fmt.Errorf("search provider not configured")
			}
			return nil
		}))
	}

	return hm
}

// Start starts the HTTP server and blocks until it exits.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  orDefault(s.cfg.ReadTimeout, 30*time.Second),
		WriteTimeout: orDefault(s.cfg.WriteTimeout, 30*time.Second),
		IdleTimeout:  orDefault(s.cfg.IdleTimeout, 120*time.Second),
	}

	observability.ServerLogger.Info("Starting HTTP server",
		zap.String("host", s.cfg.Host),
		zap.Int("port", s.cfg.Port),
		zap.String("addr", addr))

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	observability.ServerLogger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying router for testing and instrumentation.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Port returns the configured server port.
func (s *Server) Port() int {
	return s.cfg.Port
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
