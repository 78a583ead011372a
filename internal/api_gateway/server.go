package api_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sanord8/YL-portal-sub002/internal/api_gateway/handler"
	"github.com/sanord8/YL-portal-sub002/internal/api_gateway/middleware"
	"github.com/sanord8/YL-portal-sub002/internal/api_gateway/service"
	"github.com/sanord8/YL-portal-sub002/internal/config"
	"github.com/sanord8/YL-portal-sub002/internal/domain/access"
	"github.com/sanord8/YL-portal-sub002/internal/platform/ratelimit"
)

// Services are the application services exposed over HTTP
type Services struct {
	Imports    service.ImportService
	Movements  service.MovementService
	Splits     service.SplitService
	Approvals  service.ApprovalService
	Dashboards service.DashboardService
	Org        service.OrgService
	Activity   service.ActivityService
}

// Security authenticates and throttles /api/v1. A nil Limiter disables rate limiting.
type Security struct {
	Tokens     middleware.TokenVerifier
	Principals access.Repository
	Limiter    ratelimit.Limiter
}

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger // For structured logging
	httpServer *http.Server // Underlying HTTP server
	httpRouter *gin.Engine  // Gin router instance
}

// NewServer creates and configures a new HTTP server with the given services
func NewServer(log *slog.Logger, cfg *config.Config, services Services, security Security) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	setupRouter(log, httpRouter, handlers{
		imports:   handler.NewImportHandler(log, services.Imports),
		movements: handler.NewMovementHandler(log, services.Movements, services.Splits),
		approvals: handler.NewApprovalHandler(log, services.Approvals),
		activity:  handler.NewActivityHandler(log, services.Activity),
		dashboard: handler.NewDashboardHandler(log, services.Dashboards),
		org:       handler.NewOrgHandler(log, services.Org),
	}, security)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Handler exposes the configured router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server, bounded by ctx
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}
