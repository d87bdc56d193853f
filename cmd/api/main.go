package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/voicedesk/escalation-service/internal/api/http"
	"github.com/voicedesk/escalation-service/internal/api/http/handlers"
	"github.com/voicedesk/escalation-service/internal/config"
	"github.com/voicedesk/escalation-service/internal/events"
	"github.com/voicedesk/escalation-service/internal/observability"
	"github.com/voicedesk/escalation-service/internal/persistence"
	"github.com/voicedesk/escalation-service/internal/repository"
	"github.com/voicedesk/escalation-service/internal/service"
	"github.com/voicedesk/escalation-service/internal/voice"
	"github.com/voicedesk/escalation-service/internal/worker"
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

	pool := pg.PoolHandle()
	customerRepo := repository.NewCustomerRepository(pool)
	requestRepo := repository.NewHelpRequestRepository(pool)
	knowledgeRepo := repository.NewKnowledgeRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	customerService := service.NewCustomerService(customerRepo, dispatcher, logger)
	knowledgeService := service.NewKnowledgeService(knowledgeRepo, logger)
	escalationService := service.NewEscalationService(service.EscalationDependencies{
		RequestRepo: requestRepo,
		Customers:   customerService,
		Knowledge:   knowledgeService,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	notificationService := service.NewNotificationService(dispatcher, redis, logger, cfg.Notify)
	worker.StartNotificationWorker(notificationService)

	tokenManager := voice.NewTokenManager(cfg.Voice.APIKey, cfg.Voice.APISecret, cfg.Voice.TokenTTLMinutes)

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Requests:  handlers.NewRequestsHandler(escalationService),
		Knowledge: handlers.NewKnowledgeHandler(knowledgeService),
		Customers: handlers.NewCustomersHandler(customerService),
		Voice:     handlers.NewVoiceHandler(escalationService, tokenManager),
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
