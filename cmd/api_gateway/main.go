package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sanord8/YL-portal-sub002/internal/api_gateway"
	"github.com/sanord8/YL-portal-sub002/internal/api_gateway/service"
	"github.com/sanord8/YL-portal-sub002/internal/config"
	"github.com/sanord8/YL-portal-sub002/internal/data/mongo"
	"github.com/sanord8/YL-portal-sub002/internal/data/postgres"
	"github.com/sanord8/YL-portal-sub002/internal/domain/access"
	"github.com/sanord8/YL-portal-sub002/internal/logger"
	"github.com/sanord8/YL-portal-sub002/internal/platform/auth"
	"github.com/sanord8/YL-portal-sub002/internal/platform/persistence"
	"github.com/sanord8/YL-portal-sub002/internal/platform/ratelimit"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	// Applies pending migrations before returning
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Repositories
	movementRepo := postgres.NewMovementRepository(log, postgresDB)
	approvalRepo := postgres.NewApprovalRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	areaRepo := postgres.NewAreaRepository(log, postgresDB)
	departmentRepo := postgres.NewDepartmentRepository(log, postgresDB)
	bankAccountRepo := postgres.NewBankAccountRepository(log, postgresDB)
	accessRepo := postgres.NewAccessRepository(log, postgresDB)
	dashboardRepo := postgres.NewDashboardRepository(log, postgresDB)
	activityRepo := mongo.NewActivityRepository(log, mongoDB.Database())

	policy := access.NewEvaluator(access.DefaultPolicy())

	// Services
	services := api_gateway.Services{
		Imports: service.NewImportService(log, &cfg.Import, postgresDB, movementRepo, outboxRepo,
			areaRepo, departmentRepo, bankAccountRepo, policy),
		Movements: service.NewMovementService(log, postgresDB, movementRepo, approvalRepo, outboxRepo,
			areaRepo, departmentRepo, bankAccountRepo, policy),
		Splits: service.NewSplitService(log, postgresDB, movementRepo, approvalRepo, outboxRepo,
			areaRepo, departmentRepo, policy),
		Approvals:  service.NewApprovalService(log, postgresDB, movementRepo, approvalRepo, outboxRepo, policy),
		Dashboards: service.NewDashboardService(log, dashboardRepo),
		Org:        service.NewOrgService(log, areaRepo, departmentRepo, bankAccountRepo, policy),
		Activity:   service.NewActivityService(log, movementRepo, activityRepo, policy),
	}

	security := api_gateway.Security{
		Tokens:     auth.NewTokenManager(&cfg.Auth),
		Principals: accessRepo,
	}

	var closeRedis func() error
	if cfg.RateLimit.Enabled {
		redisClient, err := persistence.NewRedisClient(appCtx, log, &cfg.Redis)
		if err != nil {
			log.Error("Failed to initialize Redis", "error", err)
			os.Exit(1)
		}
		security.Limiter = ratelimit.NewRedisLimiter(redisClient, &cfg.RateLimit)
		closeRedis = redisClient.Close
		log.Info("Rate limiting enabled", "requests", cfg.RateLimit.Requests, "window", cfg.RateLimit.Window.String())
	}

	server := api_gateway.NewServer(log, cfg, services, security)
	log.Info("REST server initialized")

	errChan := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Drain in-flight requests before closing their backing stores
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	if closeRedis != nil {
		if errRedis := closeRedis(); errRedis != nil {
			log.Error("Error closing Redis client", "error", errRedis)
			err = errRedis
		}
	}

	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
