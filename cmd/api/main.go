package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/turno-service/internal/api/http"
	"github.com/spec-kit/turno-service/internal/api/http/handlers"
	"github.com/spec-kit/turno-service/internal/auth"
	"github.com/spec-kit/turno-service/internal/config"
	"github.com/spec-kit/turno-service/internal/domain"
	"github.com/spec-kit/turno-service/internal/events"
	"github.com/spec-kit/turno-service/internal/observability"
	"github.com/spec-kit/turno-service/internal/persistence"
	"github.com/spec-kit/turno-service/internal/repository"
	"github.com/spec-kit/turno-service/internal/service"
	"github.com/spec-kit/turno-service/internal/worker"
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
	ticketRepo := repository.NewTicketRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	visitorRepo := repository.NewVisitorRepository(pool)
	serviceTypeRepo := repository.NewServiceTypeRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)

	policy := domain.DefaultCategoryPolicy()

	hub := events.NewHub(cfg.Broadcast.StreamBuffer, logger)
	if cfg.Broadcast.EnableBridge && redis.Client != nil {
		bridge := events.NewRedisBridge(redis.Client, hub, cfg.Broadcast.RedisChannel, logger)
		go bridge.Run(ctx)
	}

	sequencer := service.NewSequencer(ticketRepo, policy, cfg.Sequencer.MaxAttempts)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:       ticketRepo,
		NotificationRepo: notificationRepo,
		VisitorRepo:      visitorRepo,
		ServiceTypeRepo:  serviceTypeRepo,
		Sequencer:        sequencer,
		Broadcaster:      hub,
		Logger:           logger,
	})
	queueService := service.NewQueueService(ticketRepo, policy, nil)
	statsService := service.NewStatsService(ticketRepo)
	registryService := service.NewRegistryService(visitorRepo, serviceTypeRepo, policy)
	authService := service.NewAuthService(*cfg, agentRepo)
	displayService := service.NewDisplayService(hub, logger)
	worker.StartDisplayWorker(displayService)

	agentMiddleware := auth.NewAgentMiddleware(authService.TokenManager(), agentRepo)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:          handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Visitors:        handlers.NewVisitorsHandler(registryService),
		Tickets:         handlers.NewTicketsHandler(ticketService),
		Queue:           handlers.NewQueueHandler(queueService, statsService),
		Stats:           handlers.NewStatsHandler(statsService),
		Events:          handlers.NewEventsHandler(hub, logger),
		Agents:          handlers.NewAgentsHandler(authService),
		AgentMiddleware: agentMiddleware,
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
