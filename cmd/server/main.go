package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FacundoMartinezR/TikTokFinder/internal/account"
	"github.com/FacundoMartinezR/TikTokFinder/internal/config"
	"github.com/FacundoMartinezR/TikTokFinder/internal/dashboard"
	"github.com/FacundoMartinezR/TikTokFinder/internal/db"
	"github.com/FacundoMartinezR/TikTokFinder/internal/directory"
	"github.com/FacundoMartinezR/TikTokFinder/internal/events"
	"github.com/FacundoMartinezR/TikTokFinder/internal/handler"
	"github.com/FacundoMartinezR/TikTokFinder/internal/metrics"
	"github.com/FacundoMartinezR/TikTokFinder/internal/middleware"
	"github.com/FacundoMartinezR/TikTokFinder/internal/repository"
	"github.com/FacundoMartinezR/TikTokFinder/internal/router"
	"github.com/FacundoMartinezR/TikTokFinder/internal/service"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	middleware.InitLogger(getLogLevel(cfg), "tiktokfinder-api")
	if err != nil {
		middleware.Logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			middleware.Logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool); err != nil {
			middleware.Logger.Fatal().Err(err).Msg("failed to apply migrations")
		}
	} else {
		middleware.Logger.Info().Msg("DATABASE_URL not set, subscription audit log disabled")
	}

	cache := service.NewCacheService(cfg.RedisURL, service.CacheTTLs{
		Pool:   cfg.PoolCacheTTL,
		Sample: cfg.SampleCacheTTL,
		User:   cfg.UserCacheTTL,
	})
	defer cache.Close()

	publisher, err := events.New(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		middleware.Logger.Fatal().Err(err).Msg("failed to create event publisher")
	}
	defer publisher.Close()

	dirClient := directory.NewClient(cfg.DirectoryBaseURL, cfg.UpstreamTimeout)
	authClient := account.NewAuthClient(cfg.AuthBaseURL, cfg.UpstreamTimeout)
	billingClient := account.NewBillingClient(cfg.BillingBaseURL, cfg.UpstreamTimeout)

	limits := dashboard.TierLimits{
		FreeSampleLimit: cfg.FreeSampleLimit,
		PaidPerPage:     cfg.PaidPerPage,
	}
	users := service.NewUserService(authClient, cache, limits)
	preview := service.NewPreviewService(dirClient, cache, service.PreviewConfig{
		Pages:       cfg.PoolPages,
		PageSize:    cfg.PoolPageSize,
		Concurrency: cfg.PoolFetchConcurrency,
		SampleLimit: cfg.FreeSampleLimit,
	})
	dash := service.NewDashboardService(users, dirClient, preview, limits)
	subs := service.NewSubscriptionService(users, billingClient,
		repository.NewSubscriptionEventRepo(pool), publisher, cache, limits)

	// The pool worker needs a service credential; without one the pool is
	// filled lazily by the first free-tier request.
	var worker *service.PoolWorker
	if cfg.DirectoryServiceCookie != "" {
		worker = service.NewPoolWorker(preview, cfg.DirectoryServiceCookie, cfg.PoolRefreshInterval)
		go worker.Start(ctx)
	}

	metrics.Register(pool)

	app := fiber.New(fiber.Config{
		AppName:      "TikTokFinder API",
		ServerHeader: "TikTokFinder",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	router.Setup(app, &router.Handlers{
		Health:       handler.NewHealthHandler(pool, cache.Client(), dirClient, version),
		Auth:         handler.NewAuthHandler(users),
		Dashboard:    handler.NewDashboardHandler(dash),
		Subscription: handler.NewSubscriptionHandler(subs),
	}, router.DefaultLimiters(), cfg.CORSOrigins)

	go func() {
		<-ctx.Done()
		middleware.Logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			middleware.Logger.Error().Err(err).Msg("shutdown failed")
		}
	}()

	middleware.Logger.Info().
		Str("port", cfg.Port).
		Str("env", cfg.Environment).
		Msg("TikTokFinder backend starting")
	if err := app.Listen(":"+cfg.Port, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		middleware.Logger.Error().Err(err).Msg("server stopped")
	}

	if worker != nil {
		worker.Stop()
	}
}

// getLogLevel falls back to LOG_LEVEL when the config could not be read.
func getLogLevel(cfg *config.Config) string {
	if cfg != nil {
		return cfg.LogLevel
	}
	return os.Getenv("LOG_LEVEL")
}
