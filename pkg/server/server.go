package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"github.com/yourusername/mcp-plex/pkg/auth"
	"github.com/yourusername/mcp-plex/pkg/config"
	"github.com/yourusername/mcp-plex/pkg/library"
	"github.com/yourusername/mcp-plex/pkg/plex"
	"github.com/yourusername/mcp-plex/pkg/tools"
	"golang.org/x/time/rate"
)

// Server represents the MCP Plex server
type Server struct {
	config         *config.Config
	mcpServer      *server.MCPServer
	streamableHTTP *server.StreamableHTTPServer
	plex           *plex.Client
	service        *library.Service
	cache          *cache.Cache
	rateLimiter    *rate.Limiter
	authProvider   auth.Provider
}

// New creates a new MCP Plex server
func New(cfg *config.Config) (*Server, error) {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.RateLimitPerSecond <= 0 {
		cfg.RateLimitPerSecond = 100
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 200
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.PlexTimeout <= 0 {
		cfg.PlexTimeout = 30 * time.Second
	}
	if cfg.MaxConcurrentRequests <= 0 {
		cfg.MaxConcurrentRequests = 8
	}

	plexClient := plex.NewClient(cfg.PlexURL, cfg.PlexToken, cfg.PlexTimeout, cfg.MaxConcurrentRequests)

	svc := library.NewService(plexClient)

	cacheStore := cache.New(cfg.CacheTTL, cfg.CacheTTL*2)

	rateLimiter := rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitBurst)

	authProvider, err := auth.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth provider: %w", err)
	}

	mcpServer := server.NewMCPServer(
		"mcp-plex",
		"1.0.0",
	)

	tools.RegisterTools(mcpServer, svc, cacheStore)

	streamableHTTP := server.NewStreamableHTTPServer(mcpServer)

	s := &Server{
		config:         cfg,
		mcpServer:      mcpServer,
		streamableHTTP: streamableHTTP,
		plex:           plexClient,
		service:        svc,
		cache:          cacheStore,
		rateLimiter:    rateLimiter,
		authProvider:   authProvider,
	}

	return s, nil
}

// Start runs the server on the requested transport until ctx is cancelled
func (s *Server) Start(ctx context.Context, transportMode string) error {
	switch transportMode {
	case "stdio":
		return s.startStdio(ctx)
	case "http", "":
		return s.startHTTP(ctx)
	default:
		return fmt.Errorf("unknown transport mode: %s", transportMode)
	}
}

func (s *Server) startStdio(ctx context.Context) error {
	log.Info().Msg("Starting stdio transport")

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.ServeStdio(s.mcpServer)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errChan:
		return err
	}
}

func (s *Server) startHTTP(ctx context.Context) error {
	mux := http.NewServeMux()

	// MCP StreamableHTTP endpoint
	mux.HandleFunc("/mcp", s.streamableHTTP.ServeHTTP)

	// Health check
	mux.HandleFunc("/health", s.handleHealth)

	// Ready check
	mux.HandleFunc("/ready", s.handleReady)

	// Apply middleware
	handler := s.authMiddleware(
		s.rateLimitMiddleware(
			s.loggingMiddleware(mux),
		),
	)

	httpServer := &http.Server{
		Addr:         s.config.ListenAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.config.RequestTimeout,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Str("addr", s.config.ListenAddr).Msg("Starting StreamableHTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(`{"status":"healthy"}`)); err != nil {
		log.Error().Err(err).Msg("Failed to write health response")
	}
}

// handleReady handles readiness check requests
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// Check Plex connectivity
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.plex.Connect(ctx); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		if _, err := w.Write([]byte(`{"status":"not_ready","reason":"plex_unavailable"}`)); err != nil {
			log.Error().Err(err).Msg("Failed to write ready error response")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(`{"status":"ready"}`)); err != nil {
		log.Error().Err(err).Msg("Failed to write ready response")
	}
}
