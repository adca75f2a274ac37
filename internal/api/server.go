// ABOUTME: HTTP JSON API over the training log, routed with chi.
// ABOUTME: Wires middleware, CORS, auth, metrics, and graceful shutdown.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/harperreed/cledger/internal/analytics"
	"github.com/harperreed/cledger/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// RequestTimeout bounds every request.
const RequestTimeout = 30 * time.Second

// Options configures a Server.
type Options struct {
	Repo      storage.Repository
	Assembler *analytics.Assembler
	Logger    *zap.Logger

	// Auth enables bearer-token protection of /api. Nil leaves the API open.
	Auth *Authenticator

	AllowedOrigins []string

	// Registry receives the HTTP collectors and backs /metrics.
	// Defaults to a fresh registry.
	Registry *prometheus.Registry
}

// Server serves the training log API.
type Server struct {
	repo      storage.Repository
	assembler *analytics.Assembler
	logger    *zap.Logger
	auth      *Authenticator
	origins   []string
	registry  *prometheus.Registry
	metrics   *httpMetrics
}

// New creates a Server.
func New(opts Options) *Server {
	s := &Server{
		repo:      opts.Repo,
		assembler: opts.Assembler,
		logger:    opts.Logger,
		auth:      opts.Auth,
		origins:   opts.AllowedOrigins,
		registry:  opts.Registry,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	if s.assembler == nil {
		s.assembler = analytics.NewAssembler(s.repo, analytics.WithLogger(s.logger))
	}
	s.metrics = newHTTPMetrics(s.registry)
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(RequestTimeout))
	r.Use(s.metrics.middleware)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	r.Use(corsMiddleware.Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		if s.auth != nil {
			r.With(s.auth.throttle).Post("/auth/login", s.auth.handleLogin)
		}

		r.Group(func(r chi.Router) {
			if s.auth != nil {
				r.Use(s.auth.requireToken)
			}

			r.Get("/sessions", s.listSessions)
			r.Post("/sessions", s.createSession)
			r.Get("/sessions/weeks", s.listWeeks)
			r.Get("/sessions/calendar", s.listCalendar)
			r.Get("/sessions/{id}", s.getSession)
			r.Put("/sessions/{id}", s.updateSession)
			r.Delete("/sessions/{id}", s.deleteSession)

			r.Get("/injuries", s.listInjuries)
			r.Get("/injury-locations", s.listInjuryLocations)
			r.Get("/venues", s.listVenues)

			r.Get("/analytics", s.getAnalytics)
			r.Get("/summary", s.getSummary)

			r.Get("/insights", s.listInsights)
			r.Post("/insights", s.createInsight)
			r.Get("/insights/{id}", s.getInsight)
			r.Put("/insights/{id}", s.updateInsight)
			r.Delete("/insights/{id}", s.deleteInsight)
		})
	})

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
