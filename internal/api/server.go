// Package api provides the HTTP API server for portprobe. It exposes target
// expansion, batch and streaming scans, and the read-only service catalogue
// over JSON.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	apihandlers "github.com/anstrom/portprobe/internal/api/handlers"
	"github.com/anstrom/portprobe/internal/api/middleware"
	"github.com/anstrom/portprobe/internal/auth"
	"github.com/anstrom/portprobe/internal/config"
	"github.com/anstrom/portprobe/internal/logging"
	"github.com/anstrom/portprobe/internal/metrics"
)

// Server timeout constants.
const (
	serverShutdownTimeout = 30 * time.Second
	maxHeaderBytes        = 1 << 20
)

const healthPath = "/api/v1/health"

// Server represents the API server.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	handler    http.Handler
	config     *config.Config
	engine     apihandlers.Engine
	logger     *logging.Logger
	metrics    *metrics.PrometheusMetrics
	recorder   metrics.Recorder
	version    string
}

// New creates a new API server instance. pm may be nil, in which case no
// metrics are recorded or exposed.
func New(cfg *config.Config, engine apihandlers.Engine, pm *metrics.PrometheusMetrics, version string) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}

	server := &Server{
		router:   mux.NewRouter(),
		config:   cfg,
		engine:   engine,
		logger:   logging.Default().WithComponent("api"),
		metrics:  pm,
		recorder: metrics.Nop{},
		version:  version,
	}
	if pm != nil {
		server.recorder = pm
	}

	server.setupMiddleware()
	server.setupRoutes()
	server.handler = server.wrapHandler(server.router)

	server.httpServer = &http.Server{
		Addr:           cfg.GetAPIAddress(),
		Handler:        server.handler,
		ReadTimeout:    cfg.API.ReadTimeout,
		WriteTimeout:   cfg.API.WriteTimeout,
		IdleTimeout:    cfg.API.IdleTimeout,
		MaxHeaderBytes: maxHeaderBytes,
	}

	return server, nil
}

// Start starts the API server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting API server",
		"address", s.httpServer.Addr,
		"auth", s.config.API.Auth.Enabled,
		"rate_limit", s.config.API.RateLimit.Enabled,
		"metrics", s.metricsEnabled())

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("API server failed: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return s.Stop()
	case err := <-errChan:
		return err
	}
}

// Stop gracefully stops the API server.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")

	ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.WithError(err).Error("API server shutdown error")
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("API server stopped successfully")
	return nil
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	scan := apihandlers.NewScanHandler(s.engine, s.logger,
		s.config.API.MaxRequestSize, s.config.API.MaxBatchSize)
	catalog := apihandlers.NewCatalogHandler(s.engine)
	health := apihandlers.NewHealthHandler(s.version)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/expand", scan.Expand).Methods(http.MethodPost)
	api.HandleFunc("/scan", scan.Scan).Methods(http.MethodPost)
	api.HandleFunc("/scan/stream", scan.Stream).Methods(http.MethodGet)
	api.HandleFunc("/services", catalog.Services).Methods(http.MethodGet)
	api.HandleFunc("/presets", catalog.Presets).Methods(http.MethodGet)
	api.HandleFunc("/health", health.Health).Methods(http.MethodGet)

	// Legacy paths kept for the single-page client.
	legacy := s.router.PathPrefix("/api").Subrouter()
	legacy.HandleFunc("/expand_targets", scan.Expand).Methods(http.MethodPost)
	legacy.HandleFunc("/scan_batch", scan.Scan).Methods(http.MethodPost)
	legacy.HandleFunc("/common-ports", catalog.Services).Methods(http.MethodGet)

	if s.metricsEnabled() {
		s.router.Handle(s.config.Metrics.Path, s.metrics.Handler()).Methods(http.MethodGet)
	}

	s.router.HandleFunc("/", s.index).Methods(http.MethodGet)
}

// setupMiddleware configures middleware for the API server. Router
// middleware only runs for matched routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Logging(s.logger))
	s.router.Use(middleware.Recovery(s.logger))
	s.router.Use(middleware.Metrics(s.recorder))
	s.router.Use(middleware.SecurityHeaders())

	if s.config.API.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(s.config.API.RateLimit.RequestsPerSecond, s.config.API.RateLimit.Burst)
		s.router.Use(middleware.RateLimit(limiter, s.logger))
	}

	if s.config.API.Auth.Enabled {
		store := auth.NewKeyStore(s.config.API.Auth.KeyHashes)
		public := []string{healthPath, "/"}
		if s.metricsEnabled() {
			public = append(public, s.config.Metrics.Path)
		}
		s.router.Use(middleware.Authentication(store, s.logger, public...))
	}

	s.router.Use(middleware.ContentType())
}

// wrapHandler applies the layers that must also see unmatched requests,
// such as CORS preflights.
func (s *Server) wrapHandler(h http.Handler) http.Handler {
	cors := s.config.API.CORS
	if cors.Enabled {
		h = handlers.CORS(
			handlers.AllowedOrigins(cors.AllowedOrigins),
			handlers.AllowedMethods(cors.AllowedMethods),
			handlers.AllowedHeaders(cors.AllowedHeaders),
			handlers.ExposedHeaders([]string{middleware.RequestIDHeader}),
		)(h)
	}
	return handlers.ProxyHeaders(h)
}

func (s *Server) metricsEnabled() bool {
	return s.metrics != nil && s.config.Metrics.Enabled
}

// index returns API information for root requests.
func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	endpoints := map[string]string{
		"expand":   "POST /api/v1/expand",
		"scan":     "POST /api/v1/scan",
		"stream":   "GET /api/v1/scan/stream",
		"services": "GET /api/v1/services",
		"presets":  "GET /api/v1/presets",
		"health":   "GET " + healthPath,
	}
	if s.metricsEnabled() {
		endpoints["metrics"] = "GET " + s.config.Metrics.Path
	}

	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"service":   "portprobe",
		"version":   s.version,
		"endpoints": endpoints,
		"timestamp": time.Now().UTC(),
	})
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// GetRouter returns the configured router.
func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// GetAddress returns the server address.
func (s *Server) GetAddress() string {
	return s.httpServer.Addr
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response",
			"request_id", middleware.GetRequestID(r),
			"error", err)
	}
}
