// Package api provides the HTTP REST boundary of the decision
// intelligence pipeline.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/nexus-analytics/decision-intel/internal/core"
	"github.com/nexus-analytics/decision-intel/internal/events"
	"github.com/nexus-analytics/decision-intel/internal/logging"
	"github.com/nexus-analytics/decision-intel/internal/simulation"
	"github.com/nexus-analytics/decision-intel/internal/workflow"
)

// Server exposes the pipeline, simulation and history endpoints.
type Server struct {
	router chi.Router
	engine *workflow.Engine
	sim    *simulation.Service
	store  core.RunStore
	bus    *events.Bus
	logger *logging.Logger
	noCORS bool
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *logging.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithoutCORS disables CORS headers (for deployment behind a proxy).
func WithoutCORS() ServerOption {
	return func(s *Server) {
		s.noCORS = true
	}
}

// NewServer creates a new API server.
func NewServer(engine *workflow.Engine, sim *simulation.Service, store core.RunStore, bus *events.Bus, opts ...ServerOption) *Server {
	s := &Server{
		engine: engine,
		sim:    sim,
		store:  store,
		bus:    bus,
		logger: logging.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRouter configures the chi router with all routes and middleware.
func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.loggingMiddleware)

	if !s.noCORS {
		corsHandler := cors.New(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
			AllowCredentials: false,
			MaxAge:           300,
		})
		r.Use(corsHandler.Handler)
	}

	r.Get("/health", s.handleHealth)

	// Pipeline boundary. /analyze is synchronous: it returns only after
	// the full pipeline and persistence complete, so no request timeout
	// middleware is applied to it.
	r.Post("/analyze", s.handleAnalyze)
	r.Post("/simulate", s.handleSimulate)
	r.Post("/override", s.handleOverride)
	r.Get("/history", s.handleHistory)
	r.Get("/trends", s.handleTrends)

	// SSE endpoint for real-time run events
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/events", s.handleSSE)
	})

	return r
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"bytes", ww.BytesWritten(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondError sends a JSON error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "decision-intel",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("starting API server", "addr", addr)
	return srv.ListenAndServe()
}
