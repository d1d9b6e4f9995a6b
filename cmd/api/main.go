package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-intake/internal/api/http"
	"github.com/spec-kit/support-intake/internal/api/http/handlers"
	"github.com/spec-kit/support-intake/internal/cache"
	"github.com/spec-kit/support-intake/internal/config"
	"github.com/spec-kit/support-intake/internal/devops"
	"github.com/spec-kit/support-intake/internal/events"
	"github.com/spec-kit/support-intake/internal/licensing"
	"github.com/spec-kit/support-intake/internal/notification"
	"github.com/spec-kit/support-intake/internal/observability"
	"github.com/spec-kit/support-intake/internal/persistence"
	"github.com/spec-kit/support-intake/internal/repository"
	"github.com/spec-kit/support-intake/internal/routing"
	"github.com/spec-kit/support-intake/internal/service"
)

const licenseCacheTTL = 15 * time.Minute

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

	// Missing PAT is non-fatal: submissions will fail at call time until
	// the secret is provisioned.
	pat, err := cfg.DevOps.LoadPAT()
	if err != nil {
		logger.Warn("devops PAT unavailable", zap.Error(err))
	}

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
	routes := routing.NewTable(cfg.Routing.FilePath, logger)
	devopsClient := devops.NewClient(cfg.DevOps.OrgURL, pat, cfg.DevOps.Timeout(), logger)
	licensingClient := licensing.NewClient(cfg.Marketplace.BaseURL, cfg.Marketplace.SubscriptionKey, cfg.Marketplace.Timeout(), logger)
	licenseCache := cache.NewLicenseCache(redis.Client, licenseCacheTTL, logger)
	licenseService := service.NewLicenseService(licensingClient, licenseCache)
	ticketRepo := repository.NewTicketRepository(pg.PoolHandle())

	dispatcher := events.NewInMemoryDispatcher()
	notifier := notification.NewClient(cfg.Marketplace, cfg.Notification, logger)
	notifier.RegisterHandlers(dispatcher)

	submissionService := service.NewSubmissionService(service.SubmissionDependencies{
		Routes:     routes,
		DevOps:     devopsClient,
		Tickets:    ticketRepo,
		Licenses:   licenseService,
		Dispatcher: dispatcher,
		Logger:     logger,
		DevOpsOrg:  path.Base(cfg.DevOps.OrgURL),
	})
	widgetService := service.NewWidgetService(routes)

	app := fiber.New(fiber.Config{BodyLimit: 10 * 1024 * 1024})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, cfg.App.Env, pg, redis)
	supportHandler := handlers.NewSupportHandler(submissionService, widgetService, licenseService)
	widgetHandler := handlers.NewWidgetHandler("widget/dist", "https://support.acidni.net/api/support", logger)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  healthHandler,
		Support: supportHandler,
		Widget:  widgetHandler,
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
