package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/hospital-records/internal/api/http"
	"github.com/spec-kit/hospital-records/internal/api/http/handlers"
	"github.com/spec-kit/hospital-records/internal/auth"
	"github.com/spec-kit/hospital-records/internal/config"
	"github.com/spec-kit/hospital-records/internal/events"
	"github.com/spec-kit/hospital-records/internal/observability"
	"github.com/spec-kit/hospital-records/internal/persistence"
	"github.com/spec-kit/hospital-records/internal/repository"
	"github.com/spec-kit/hospital-records/internal/service"
	"github.com/spec-kit/hospital-records/internal/worker"
	"github.com/spec-kit/hospital-records/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	principals, dependencies, closeStore := openCredentialStore(ctx, cfg, logger)
	defer closeStore()

	authService, err := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		Principals: principals,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("failed to init auth service", zap.Error(err))
	}
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), principals, logger,
		auth.WithMetrics(metrics),
		auth.WithDispatcher(dispatcher),
	)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies),
		Auth:           handlers.NewAuthHandler(authService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics.Handler(),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("fiber shutdown", zap.Error(err))
	}
}

// openCredentialStore connects the configured backend and returns the
// repository, its readiness checks and a cleanup func.
func openCredentialStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.PrincipalRepository, map[string]handlers.Pinger, func()) {
	switch cfg.Auth.Store {
	case config.StoreRedis:
		rdb, err := persistence.NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		return repository.NewRedisPrincipalRepository(rdb.Client),
			map[string]handlers.Pinger{"redis": rdb},
			rdb.Close
	case config.StoreMemory:
		logger.Warn("using in-memory credential store; principals are lost on restart")
		return repository.NewMemoryPrincipalRepository(), map[string]handlers.Pinger{}, func() {}
	default:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), migrations.FS, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		return repository.NewPrincipalRepository(pg.PoolHandle()),
			map[string]handlers.Pinger{"postgres": pg},
			pg.Close
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
