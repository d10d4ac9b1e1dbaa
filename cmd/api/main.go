package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/lead-engine/internal/api/http"
	"github.com/spec-kit/lead-engine/internal/api/http/handlers"
	"github.com/spec-kit/lead-engine/internal/auth"
	"github.com/spec-kit/lead-engine/internal/config"
	"github.com/spec-kit/lead-engine/internal/events"
	"github.com/spec-kit/lead-engine/internal/identity"
	"github.com/spec-kit/lead-engine/internal/observability"
	"github.com/spec-kit/lead-engine/internal/persistence"
	"github.com/spec-kit/lead-engine/internal/repository"
	"github.com/spec-kit/lead-engine/internal/service"
	"github.com/spec-kit/lead-engine/internal/worker"
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

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	leadRepo := repository.NewLeadRepository(pool)
	branchRepo := repository.NewBranchRepository(pool)
	credRepo := repository.NewCredentialRepository(pool)
	checkpoints := persistence.NewCascadeCheckpointStore(redis)

	dispatcher := events.NewInMemoryDispatcher()
	recorder := events.NewAuditRecorder(dispatcher, events.NewLoggingSink(logger), metrics)
	recorder.RegisterHandlers()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	provider := identity.NewLocalProvider(credRepo, cfg.Auth.BcryptCost)

	uniqueness := service.NewUniquenessService(leadRepo)
	accountService := service.NewAccountService(service.AccountDependencies{
		UserRepo:   userRepo,
		Provider:   provider,
		Tokens:     tokens,
		Dispatcher: dispatcher,
	})
	leadService := service.NewLeadService(service.LeadDependencies{
		LeadRepo:   leadRepo,
		UserRepo:   userRepo,
		Uniqueness: uniqueness,
		Dispatcher: dispatcher,
	})
	branchService := service.NewBranchService(service.BranchDependencies{
		BranchRepo:  branchRepo,
		UserRepo:    userRepo,
		Checkpoints: checkpoints,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})

	worker.StartCascadeWorker(ctx, branchService, logger, 5*time.Minute)

	authMiddleware := auth.NewAuthMiddleware(tokens, userRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(accountService),
		Leads:          handlers.NewLeadsHandler(leadService),
		Branches:       handlers.NewBranchesHandler(branchService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
