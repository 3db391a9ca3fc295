package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/systemcontrol/defect-service/internal/api/http"
	"github.com/systemcontrol/defect-service/internal/api/http/handlers"
	"github.com/systemcontrol/defect-service/internal/auth"
	"github.com/systemcontrol/defect-service/internal/config"
	"github.com/systemcontrol/defect-service/internal/events"
	"github.com/systemcontrol/defect-service/internal/observability"
	"github.com/systemcontrol/defect-service/internal/persistence"
	"github.com/systemcontrol/defect-service/internal/repository"
	"github.com/systemcontrol/defect-service/internal/service"
	"github.com/systemcontrol/defect-service/internal/worker"
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

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var store repository.Store
	if pool := pg.PoolHandle(); pool != nil {
		store = repository.NewStore(pool)
	} else {
		store = repository.NewMemoryStore()
	}

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	defectService := service.NewDefectService(store, dispatcher)
	projectService := service.NewProjectService(store)
	commentService := service.NewCommentService(store, dispatcher)
	reportService := service.NewReportService(store, redis, logger)
	authService := service.NewAuthService(cfg.Auth, store, logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	if cfg.Auth.SeedDefaultUsers {
		if err := authService.EnsureDefaultUsers(ctx); err != nil {
			logger.Fatal("failed to seed default users", zap.Error(err))
		}
	}

	authMiddleware := auth.NewMiddleware(authService.TokenManager(), store.Users())

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(authService),
		Defects:        handlers.NewDefectsHandler(defectService),
		Projects:       handlers.NewProjectsHandler(projectService),
		Comments:       handlers.NewCommentsHandler(commentService),
		Reports:        handlers.NewReportsHandler(reportService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
