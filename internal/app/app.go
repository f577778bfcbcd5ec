package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/nuforge/ttg-clca-bridge/internal/adapter/repository/postgres"
	"github.com/nuforge/ttg-clca-bridge/internal/api"
	"github.com/nuforge/ttg-clca-bridge/internal/config"
	"github.com/nuforge/ttg-clca-bridge/internal/dlq"
	"github.com/nuforge/ttg-clca-bridge/internal/domain/event"
	"github.com/nuforge/ttg-clca-bridge/internal/domain/game"
	"github.com/nuforge/ttg-clca-bridge/internal/mapping"
	syncer "github.com/nuforge/ttg-clca-bridge/internal/sync"
	"github.com/nuforge/ttg-clca-bridge/pkg/clcaclient"
	gormdb "github.com/nuforge/ttg-clca-bridge/pkg/db"
	zaplog "github.com/nuforge/ttg-clca-bridge/pkg/log"
	"github.com/nuforge/ttg-clca-bridge/sql/migrations"
)

// RunServer starts the HTTP server and the retry processor.
func RunServer() {
	app := fx.New(
		fx.Provide(
			// Config
			config.Load,

			// CLCA ingest client
			clcaclient.NewFromEnv,

			// Repositories (bind interfaces)
			fx.Annotate(
				postgres.NewEventRepository,
				fx.As(new(event.Repository)),
			),
			fx.Annotate(
				postgres.NewGameRepository,
				fx.As(new(game.Repository)),
			),
			fx.Annotate(
				postgres.NewDLQStore,
				fx.As(new(dlq.Store)),
			),

			// Pipeline
			newMapper,
			newProcessor,
			newOrchestrator,

			// API
			api.NewRouter,
		),
		gormdb.Module, // Database Module
		zaplog.Module, // Logger Module
		fx.Invoke(registerHooks),
	)

	app.Run()
}

// RunMigrations executes database migrations (up or down).
func RunMigrations(command string) error {
	if command == "" {
		command = "up"
	}

	cfg := config.Load()
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	logger.Info("running_migrations", zap.String("command", command))

	dbURL := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBSSLMode,
	)

	d, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("load migration files: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, dbURL)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	switch command {
	case "up":
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			return fmt.Errorf("migration up failed: %w", err)
		}
		logger.Info("migrations_applied")
	case "down":
		if err := m.Down(); err != nil && err != migrate.ErrNoChange {
			return fmt.Errorf("migration down failed: %w", err)
		}
		logger.Info("migrations_reverted")
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}

	return nil
}

func registerHooks(lc fx.Lifecycle, router *api.Router, processor *dlq.Processor, cfg *config.Config, logger *zap.Logger) {
	var processorCancel context.CancelFunc

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting_http_server", zap.String("port", cfg.Port))

			processorCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
			processorCancel = cancel
			go processor.Run(processorCtx)

			go func() {
				if err := router.Run(); err != nil && err != http.ErrServerClosed {
					logger.Fatal("server_failed", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting_down")

			if processorCancel != nil {
				processorCancel()
			}

			shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()

			if err := router.Shutdown(shutdownCtx); err != nil {
				logger.Error("server_forced_shutdown", zap.Error(err))
				return err
			}

			logger.Info("server_stopped")
			return nil
		},
	})
}

func newMapper(cfg *config.Config, logger *zap.Logger) *mapping.Mapper {
	return mapping.New(cfg.SiteBaseURL, logger)
}

func newProcessor(store dlq.Store, client *clcaclient.Client, cfg *config.Config, logger *zap.Logger) *dlq.Processor {
	return dlq.NewProcessor(store, client, dlq.Config{
		MaxRetries:   cfg.DLQMaxRetries,
		BatchSize:    cfg.DLQBatchSize,
		PollInterval: cfg.DLQPollInterval,
		BaseBackoff:  cfg.DLQBaseBackoff,
		MaxBackoff:   cfg.DLQMaxBackoff,
	}, logger)
}

func newOrchestrator(
	events event.Repository,
	games game.Repository,
	mapper *mapping.Mapper,
	client *clcaclient.Client,
	processor *dlq.Processor,
	cfg *config.Config,
	logger *zap.Logger,
) *syncer.Orchestrator {
	return syncer.NewOrchestrator(events, games, mapper, client, processor, syncer.Config{
		ResyncDelay:      cfg.ResyncDelay,
		ResyncBatchLimit: cfg.ResyncBatchLimit,
	}, logger)
}
