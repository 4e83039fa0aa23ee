package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/background"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/config"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/credential"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/database"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/identity"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/logging"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/observability"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/repository"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/routes"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/services"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/storage"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	console := logging.Setup(cfg.IsProduction())

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(db, console)
	slog.SetDefault(slog.New(logging.NewMultiHandler(console, pgLogHandler)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.StartCleanup(ctx, db, cfg.LogRetention)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
			Release:          cfg.Version,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		}
	}

	// Observability
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	var reporter observability.Reporter = observability.NewLogReporter(slog.Default())
	if cfg.SentryDSN != "" {
		reporter = observability.NewSentryReporter(sentry.CurrentHub(), slog.Default())
	}

	runner := background.NewRunner(cfg.BackgroundConcurrency, reporter, metrics)

	// Storage
	var blob storage.Blob = storage.Disabled{}
	if cfg.StorageEndpoint != "" {
		store, err := storage.NewMinIOStore(ctx, cfg.StorageEndpoint, cfg.StorageAccessKey, cfg.StorageSecretKey, cfg.StorageBucket, cfg.StorageUseSSL)
		if err != nil {
			slog.Error("storage init failed", "error", err)
			os.Exit(1)
		}
		blob = store
	} else {
		slog.Warn("STORAGE_ENDPOINT not set, image uploads are disabled")
	}

	// Identity providers
	httpClient := &http.Client{Timeout: 10 * time.Second}
	providers := identity.NewRegistry(
		identity.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, httpClient),
		identity.NewFacebook(cfg.FacebookAppID, cfg.FacebookAppSecret, httpClient),
		identity.NewApple(cfg.AppleClientID, cfg.AppleJWKSURL),
	)

	// Services
	users := repository.NewUserRepository(db)
	tokens := token.NewService(token.Options{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.JWTAccessExpiry,
		RefreshTTL: cfg.JWTRefreshExpiry,
	}, users, runner, reporter, metrics)
	accounts := services.NewAccountService(users, tokens, credential.NewCodec(), blob, runner, reporter, metrics)
	social := services.NewSocialService(users, tokens, providers, reporter, metrics)

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    10 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	production := cfg.IsProduction()
	routes.Setup(app, cfg, routes.Handlers{
		Root: handlers.NewRootHandler(tokens, cfg.Version, cfg.HomeURL, production),
		Health: handlers.NewHealthHandler(func(ctx context.Context) error {
			return database.Ping(ctx, db)
		}, cfg.Version),
		Auth:    handlers.NewAuthHandler(accounts, social, production),
		Account: handlers.NewAccountHandler(accounts, production),
	}, registry)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// In-flight background work still writes to the database.
	runner.Wait()
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
