package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ralovishna/money-manager-api/internal/config"
	"github.com/ralovishna/money-manager-api/internal/mailer"
	"github.com/ralovishna/money-manager-api/internal/observability"
	"github.com/ralovishna/money-manager-api/internal/persistence"
	"github.com/ralovishna/money-manager-api/internal/repository"
	"github.com/ralovishna/money-manager-api/internal/service"
	"github.com/ralovishna/money-manager-api/internal/worker"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	metrics := observability.NewMetrics()
	delivery := mailer.NewDeliverySender(cfg.Mail, metrics, logger)

	pool := pg.PoolHandle()
	notifications := service.NewNotificationService(cfg.Notification, cfg.Auth.ActivationBaseURL, service.NotificationDependencies{
		Sender:   delivery,
		Profiles: repository.NewProfileRepository(pool),
		Expenses: repository.NewExpenseRepository(pool),
		Logger:   logger,
	})

	scheduler, err := worker.NewScheduler(cfg.Notification, notifications, metrics, logger)
	if err != nil {
		logger.Fatal("invalid notification schedule", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		scheduler.Start(gctx)
		<-gctx.Done()
		scheduler.Stop()
		return nil
	})

	if cfg.AMQP.URL != "" {
		queue, err := mailer.NewQueue(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue, logger)
		if err != nil {
			logger.Fatal("failed to connect mail queue", zap.Error(err))
		}
		defer queue.Close() //nolint:errcheck

		consumer := mailer.NewConsumer(queue, delivery)
		g.Go(func() error {
			return consumer.Run(gctx)
		})
	} else {
		logger.Info("AMQP_URL not set; mail queue consumer disabled")
	}

	logger.Info("worker started", zap.String("timezone", cfg.Notification.Timezone))
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Error("worker stopped", zap.Error(err))
	}
	logger.Info("worker shut down")
}
