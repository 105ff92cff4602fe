package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/complaint-intake/internal/api/http"
	"github.com/spec-kit/complaint-intake/internal/api/http/handlers"
	"github.com/spec-kit/complaint-intake/internal/auth"
	"github.com/spec-kit/complaint-intake/internal/config"
	"github.com/spec-kit/complaint-intake/internal/events"
	"github.com/spec-kit/complaint-intake/internal/observability"
	"github.com/spec-kit/complaint-intake/internal/oracle"
	"github.com/spec-kit/complaint-intake/internal/persistence"
	"github.com/spec-kit/complaint-intake/internal/repository"
	"github.com/spec-kit/complaint-intake/internal/service"
	"github.com/spec-kit/complaint-intake/internal/worker"
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

	var (
		ticketRepo repository.TicketRepository
		threadRepo repository.ThreadRepository
	)
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		ticketRepo = repository.NewTicketRepository(pool)
		threadRepo = repository.NewThreadRepository(pool)
	} else {
		logger.Warn("running with in-memory ticket and thread stores")
		ticketRepo = repository.NewMemoryTicketRepository()
		threadRepo = repository.NewMemoryThreadRepository()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()
	conversationRepo := repository.NewConversationRepository(redis.Client)

	var extractor oracle.Oracle
	if cfg.Oracle.APIKey != "" {
		extractor = oracle.NewChatOracle(cfg.Oracle, logger)
	} else {
		logger.Warn("no oracle API key configured; using rule-based extractor")
		extractor = oracle.NewRuleOracle()
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	var kafkaPublisher *events.KafkaPublisher
	if cfg.Kafka.Enabled() {
		kafkaPublisher = events.NewKafkaPublisher(cfg.Kafka, logger)
		kafkaPublisher.RegisterHandlers(dispatcher)
		defer kafkaPublisher.Close() //nolint:errcheck
	}

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService, logger)

	intakeService := service.NewIntakeService(service.IntakeDependencies{
		Oracle:           extractor,
		TicketRepo:       ticketRepo,
		ThreadRepo:       threadRepo,
		ConversationRepo: conversationRepo,
		Policy:           service.NewTriagePolicy(cfg.Triage),
		Dispatcher:       dispatcher,
		Metrics:          metrics,
		Logger:           logger,
		MaxRetries:       cfg.Triage.MaxRetries,
	})
	ticketService := service.NewTicketService(ticketRepo, conversationRepo, logger)
	agentService := service.NewAgentService(cfg.Auth)
	authMiddleware := auth.NewMiddleware(agentService.TokenManager())

	app := fiber.New(fiber.Config{DisableStartupMessage: cfg.App.Env == "production"})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	// A nil postgres handle tells the readiness probe the store is
	// intentionally disabled rather than unreachable.
	healthPg := pg
	if pg.PoolHandle() == nil {
		healthPg = nil
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, healthPg, redis),
		Complaints:     handlers.NewComplaintsHandler(intakeService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Agents:         handlers.NewAgentsHandler(agentService),
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
