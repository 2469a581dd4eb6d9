package server

import (
	"time"

	"github.com/canvashq/canvas/internal/server/handlers"
)

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes() {
	s.router.Post("/research", handlers.NewResearchHandler(s.deps.Engine))
	s.router.Get("/throttle/stats", handlers.NewThrottleStatsHandler(s.deps.Throttle, s.deps.Cache))

	s.router.Get("/health", s.health.HealthHandler)
	s.router.Get("/health/live", s.health.ProbeHandler("live", 2*time.Second))
	s.router.Get("/health/ready", s.health.ProbeHandler("ready", 5*time.Second))
	s.router.Get("/health/startup", s.health.ProbeHandler("startup", 3*time.Second))

	s.router.Get("/version", handlers.VersionHandler)

	// Metrics handler lives in this package to access HandleError.
	s.router.Get("/metrics", MetricsHandler)
}
