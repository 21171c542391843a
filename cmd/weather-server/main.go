package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/i474232898/weather-cli/internal/api/http"
	"github.com/i474232898/weather-cli/internal/config"
	"github.com/i474232898/weather-cli/internal/observability"
	"github.com/i474232898/weather-cli/internal/store"
	"github.com/i474232898/weather-cli/internal/weather"
	"github.com/i474232898/weather-cli/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)

	path, err := cfg.StoragePath()
	if err != nil {
		log.Fatalf("failed to resolve config path: %v", err)
	}
	storage, err := store.Load(store.NewFileBackend(path), logr)
	if err != nil {
		log.Fatalf("failed to load provider config from %s: %v", path, err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	opts := []providers.Option{providers.WithLogger(logr)}
	if cfg.MetricsEnabled {
		opts = append(opts, providers.WithMetrics(observability.NewMetrics()))
	}

	service := weather.NewService(storage, providers.Factory(httpClient, opts...), logr)

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-server",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.HTTPTimeout + 5*time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-server",
		})
	})

	if cfg.MetricsEnabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	// API routes.
	httpapi.RegisterRoutes(app, service)

	go func() {
		logr.Info("listening", "port", cfg.Port, "config", path)
		if err := app.Listen(":" + cfg.Port); err != nil {
			logr.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logr.Error("error during shutdown", "error", err)
	}
	if err := service.Flush(); err != nil {
		logr.Error("failed to store provider config", "error", err)
		os.Exit(1)
	}
}
