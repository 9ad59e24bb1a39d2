package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/sundayezeilo/shortlinks/internal/auth"
	"github.com/sundayezeilo/shortlinks/internal/cache"
	"github.com/sundayezeilo/shortlinks/internal/config"
	"github.com/sundayezeilo/shortlinks/internal/db/migrations"
	db "github.com/sundayezeilo/shortlinks/internal/db/sqlc"
	"github.com/sundayezeilo/shortlinks/internal/metrics"
	"github.com/sundayezeilo/shortlinks/internal/server"
	"github.com/sundayezeilo/shortlinks/internal/shortener"
)

// App holds the application dependencies and configuration.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	DBPool  *pgxpool.Pool
	Metrics *metrics.Metrics
	Server  *server.Server
	Janitor *shortener.Janitor

	closeCache func() error
}

// New initializes and returns a new App instance with all dependencies wired up.
func New(ctx context.Context) (*App, error) {
	if err := loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"env", cfg.App.Environment,
		"version", cfg.Observability.ServiceVersion,
	)

	if cfg.Database.Migrate {
		if err := migrations.Run(cfg.Database.URL(), logger); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	dbPool, err := connectDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	var m *metrics.Metrics
	if cfg.Observability.MetricsEnabled {
		m = metrics.New()
	}

	gw, closeCache := cache.Connect(ctx, cfg.Redis, logger, m)

	queries := db.New(dbPool)

	// Identity
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Observability.ServiceName)
	users := auth.NewUserRepository(queries, cfg.Database.QueryTimeout)
	authSvc := auth.NewService(users, tokens, &auth.ServiceConfig{Logger: logger})

	if cfg.Auth.BootstrapAdmin() {
		err := authSvc.EnsureAdmin(ctx, auth.RegisterRequest{
			Username: cfg.Auth.AdminUsername,
			Email:    cfg.Auth.AdminEmail,
			Password: cfg.Auth.AdminPassword,
		})
		if err != nil {
			dbPool.Close()
			_ = closeCache()
			return nil, fmt.Errorf("failed to bootstrap admin user: %w", err)
		}
	}

	// Links
	repo := shortener.NewRepository(queries, &shortener.RepositoryConfig{
		QueryTimeout: cfg.Database.QueryTimeout,
	})
	svc := shortener.NewService(repo, &shortener.ServiceConfig{
		Cache:           gw,
		DefaultCacheTTL: cfg.Redis.DefaultTTL,
		Logger:          logger,
		Metrics:         m,
	})
	janitor := shortener.NewJanitor(repo, &shortener.JanitorConfig{
		Interval: cfg.Janitor.Interval,
		Timeout:  cfg.Janitor.Timeout,
		Logger:   logger,
		Metrics:  m,
	})

	srv := server.New(cfg, logger, server.Deps{
		Links: shortener.NewHandler(shortener.HandlerConfig{
			Service: svc,
			Logger:  logger,
			BaseURL: cfg.Server.BaseURL,
		}),
		Users:   auth.NewHandler(authSvc, logger),
		Tokens:  tokens,
		Metrics: m,
	})

	logger.Info("application initialized",
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
		"metrics", m != nil,
	)

	return &App{
		Config:     cfg,
		Logger:     logger,
		DBPool:     dbPool,
		Metrics:    m,
		Server:     srv,
		Janitor:    janitor,
		closeCache: closeCache,
	}, nil
}

// Start runs the HTTP server and the janitor until ctx is cancelled or
// either of them fails.
func (a *App) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Server.Start(ctx)
	})
	g.Go(func() error {
		return a.Janitor.Run(ctx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("application error: %w", err)
	}
	return nil
}

// Shutdown releases the cache client and the database pool.
func (a *App) Shutdown() error {
	a.Logger.Info("shutting down application")

	var errs []error
	if a.closeCache != nil {
		if err := a.closeCache(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close cache: %w", err))
		}
	}

	if a.DBPool != nil {
		a.DBPool.Close()
		a.Logger.Info("database connection closed")
	}

	return errors.Join(errs...)
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
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

// connectDatabase establishes a connection to the PostgreSQL database.
func connectDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.Database.MaxConns
	poolConfig.MinConns = cfg.Database.MinConns

	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established")

	return pool, nil
}
