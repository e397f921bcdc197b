package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/ralovishna/money-manager-api/internal/api/http"
	"github.com/ralovishna/money-manager-api/internal/api/http/handlers"
	"github.com/ralovishna/money-manager-api/internal/auth"
	"github.com/ralovishna/money-manager-api/internal/config"
	"github.com/ralovishna/money-manager-api/internal/events"
	"github.com/ralovishna/money-manager-api/internal/identity"
	"github.com/ralovishna/money-manager-api/internal/mailer"
	"github.com/ralovishna/money-manager-api/internal/observability"
	"github.com/ralovishna/money-manager-api/internal/persistence"
	"github.com/ralovishna/money-manager-api/internal/repository"
	"github.com/ralovishna/money-manager-api/internal/service"
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

	metrics := observability.NewMetrics()

	sender, closeSender, err := mailer.NewSender(cfg, metrics, logger)
	if err != nil {
		logger.Fatal("failed to init mail sender", zap.Error(err))
	}
	defer closeSender()

	codec, err := auth.NewTokenCodec(cfg.Auth.JWTSecret)
	if err != nil {
		logger.Fatal("invalid token configuration", zap.Error(err))
	}

	pool := pg.PoolHandle()
	profileRepo := repository.NewProfileRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	expenseRepo := repository.NewExpenseRepository(pool)
	incomeRepo := repository.NewIncomeRepository(pool)
	resolver := identity.NewResolver(profileRepo)

	dispatcher := events.NewInMemoryDispatcher()
	service.NewNotificationService(cfg.Notification, cfg.Auth.ActivationBaseURL, service.NotificationDependencies{
		Dispatcher: dispatcher,
		Sender:     sender,
		Profiles:   profileRepo,
		Expenses:   expenseRepo,
		Logger:     logger,
	}).RegisterHandlers()

	profileService := service.NewProfileService(cfg.Auth, service.ProfileDependencies{
		Profiles:   profileRepo,
		Codec:      codec,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	ledger := func(repo repository.TransactionRepository) *service.TransactionService {
		return service.NewTransactionService(service.TransactionDependencies{
			Ledger:     repo,
			Categories: categoryRepo,
			Resolver:   resolver,
			Sender:     sender,
			Location:   cfg.Notification.Location(),
		})
	}
	expenseService, incomeService := ledger(expenseRepo), ledger(incomeRepo)

	app := httptransport.NewApp(cfg.App.Name, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:     handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Profiles:   handlers.NewProfileHandler(profileService, resolver, persistence.NewRateLimiter(redis, logger), metrics, cfg.Auth.LoginAttemptsPerMin),
		Categories: handlers.NewCategoryHandler(service.NewCategoryService(categoryRepo, resolver)),
		Expenses:   handlers.NewTransactionHandler(expenseService),
		Incomes:    handlers.NewTransactionHandler(incomeService),
		Dashboard:  handlers.NewDashboardHandler(service.NewDashboardService(incomeRepo, expenseRepo, resolver), expenseService, incomeService),
		Authenticator: auth.NewAuthenticator(codec, resolver, logger,
			auth.WithOutcomeRecorder(metrics)),
		Metrics: metrics,
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
