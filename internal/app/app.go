package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/sundayezeilo/shortlinks/internal/assets"
	"github.com/sundayezeilo/shortlinks/internal/auth"
	"github.com/sundayezeilo/shortlinks/internal/config"
	"github.com/sundayezeilo/shortlinks/internal/link"
	"github.com/sundayezeilo/shortlinks/internal/server"
)

// App holds the application dependencies and configuration.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	Store  *Store
	Server *server.Server
}

// New initializes and returns a new App instance with all dependencies wired up.
func New(ctx context.Context) (*App, error) {
	cfg, logger, err := Bootstrap()
	if err != nil {
		return nil, err
	}

	logger.Info("starting application", "env", cfg.App.Environment)

	store, err := OpenStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	svc := link.NewService(store.Links, nil)
	handler := link.NewHandler(link.HandlerConfig{
		Service:      svc,
		Logger:       logger,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		NotFound:     assets.ServeNotFound,
	})

	gate := auth.NewGate(cfg.Auth)
	if gate.Disabled() {
		logger.Warn("USER_ID and PASSWORD are not set, the management UI is disabled")
	}
	if gate.Unsatisfiable() {
		logger.Warn("AUTH_MATCH=all needs both USER_ID and PASSWORD, the management UI can't be unlocked")
	}

	srv := server.New(cfg, logger, server.Deps{
		Links: handler,
		Gate:  gate,
		Ping:  store.Ping,
	})

	logger.Info("application initialized",
		"listen_address", cfg.Server.ListenAddress,
		"root_redirect", cfg.Server.RootRedirect,
		"auth_match", cfg.Auth.Match,
	)

	return &App{
		Config: cfg,
		Logger: logger,
		Store:  store,
		Server: srv,
	}, nil
}

// Bootstrap loads the environment and configuration and builds the logger.
// It is shared by every binary in the repository.
func Bootstrap() (*config.Config, *slog.Logger, error) {
	if err := loadEnv(); err != nil {
		return nil, nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, setupLogger(cfg.App.LogLevel), nil
}

// Start starts the application server.
func (a *App) Start(ctx context.Context) error {
	a.Logger.Info("server starting", "listen_address", a.Config.Server.ListenAddress)

	if err := a.Server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	a.Logger.Info("shutting down application")

	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			return fmt.Errorf("failed to close store: %w", err)
		}
		a.Logger.Info("database connection closed")
	}

	return nil
}

// loadEnv loads .env file only in non-production environments.
func loadEnv() error {
	env := os.Getenv("APP_ENV")
	if env == "development" || env == "test" {
		if err := godotenv.Load(); err != nil {
			log.Println("no .env file found.")
		}
	}
	return nil
}

// setupLogger creates a structured logger based on the log level.
func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
