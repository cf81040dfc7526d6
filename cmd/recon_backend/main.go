package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/SscSPs/recon_engine/internal/core/engine"
	portsrepo "github.com/SscSPs/recon_engine/internal/core/ports/repositories"
	"github.com/SscSPs/recon_engine/internal/core/services"
	"github.com/SscSPs/recon_engine/internal/handlers"
	"github.com/SscSPs/recon_engine/internal/middleware"
	"github.com/SscSPs/recon_engine/internal/platform/config"
	"github.com/SscSPs/recon_engine/internal/repositories/database/pgsql"
	"github.com/SscSPs/recon_engine/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// @title Reconciliation Engine API
// @version 1.0
// @description Matches transactions across two sources and classifies the breaks between them.

// @host localhost:8080
// @BasePath /api/v1
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		logger.Error("Invalid reconciliation settings", slog.String("error", err.Error()))
		os.Exit(1)
	}
	eng, err := engine.New(engineCfg, engine.WithLogger(logger))
	if err != nil {
		logger.Error("Failed to create reconciliation engine", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Results are only persisted when a database is configured
	var repos *portsrepo.RepositoryProvider
	if cfg.DatabaseURL != "" {
		dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL, cfg.EnableDBCheck,
			database.WithMaxConns(cfg.DBMaxConns),
			database.WithConnectTimeout(cfg.DBConnectTimeout),
		)
		if err != nil {
			logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer database.ClosePgxPool(dbPool)
		logger.Info("Database connection pool established.")

		if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
			logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}

		provider := pgsql.NewRepositoryProvider(dbPool)
		repos = &provider
	} else {
		logger.Warn("No database configured; reconciliation results will not be stored")
	}

	serviceContainer := services.NewServiceContainer(eng, logger, repos)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, CORS)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery(), cors.New(corsConfig(cfg)))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var lim *limiter.Limiter
	if cfg.RateLimit != "" {
		lim, err = middleware.NewRateLimiter(cfg.RateLimit)
		if err != nil {
			logger.Error("Failed to create rate limiter", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer, lim)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.DefaultConfig()
	if len(cfg.CORSAllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORSAllowedOrigins
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "X-Request-ID")
	corsCfg.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"}
	return corsCfg
}

// runMigrations applies every pending migration from the migrations directory.
func runMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")
	// Using pgx/v5/stdlib driver to be compatible with the main pool
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	upErr := m.Up()
	if upErr != nil && upErr != migrate.ErrNoChange {
		return upErr
	}

	// Check for dirty migrations after running Up.
	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if upErr == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
