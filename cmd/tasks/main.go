package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskmanager/internal/auth"
	domainerrors "taskmanager/internal/domain/errors"
	"taskmanager/internal/logging"
	"taskmanager/internal/server"
	"taskmanager/internal/service"
	db "taskmanager/repository/db"
	inmemory "taskmanager/repository/inmemory"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

type runner interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// store is what both storage backends provide.
type store interface {
	service.UserRepository
	service.TaskRepository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tasks",
		Short:         "Task manager REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := server.ReadConfig(cmd.Flags())
			logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
		},
	}
	server.RegisterFlags(root.PersistentFlags())

	root.AddCommand(newServeCmd(), newMigrateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := server.ReadConfig(cmd.Flags())
			if err := cfg.Validate(); err != nil {
				logging.Error().Err(err).Msg("invalid configuration")
				return err
			}

			if cfg.Storage == server.StorageMongo && !skipMigrations {
				if err := db.Migration(cfg.MongoURI, cfg.MongoDatabase, cfg.MigratePath); err != nil {
					logging.Error().Err(err).Msg("migrations failed")
					return err
				}
				logging.Info().Str("path", cfg.MigratePath).Msg("migrations applied")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st, err := openStore(ctx, cfg)
			if err != nil {
				logging.Error().Err(err).Str("storage", cfg.Storage).Msg("storage unavailable")
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := st.Close(closeCtx); err != nil {
					logging.Warn().Err(err).Msg("storage close failed")
				}
			}()

			gin.SetMode(gin.ReleaseMode)
			api := server.NewTaskAPI(buildDependencies(cfg, st), cfg)
			if api == nil {
				return errors.New("task API could not be initialised")
			}

			return run(ctx, api, shutdownTimeout)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "start without applying migrations")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage MongoDB index migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := server.ReadConfig(cmd.Flags())
			if cfg.MongoURI == "" {
				return fmt.Errorf("migrate up: %w", domainerrors.ErrConfigMissingURI)
			}
			if err := db.Migration(cfg.MongoURI, cfg.MongoDatabase, cfg.MigratePath); err != nil {
				return err
			}
			logging.Info().Msg("migrations applied")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := server.ReadConfig(cmd.Flags())
			if cfg.MongoURI == "" {
				return fmt.Errorf("migrate down: %w", domainerrors.ErrConfigMissingURI)
			}
			if err := db.Rollback(cfg.MongoURI, cfg.MongoDatabase, cfg.MigratePath, steps); err != nil {
				return err
			}
			logging.Info().Int("steps", steps).Msg("migrations rolled back")
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(up, down)
	return cmd
}

func openStore(ctx context.Context, cfg *server.Config) (store, error) {
	switch cfg.Storage {
	case server.StorageMemory:
		logging.Warn().Msg("using in-memory storage, data is lost on exit")
		return inmemory.NewStorage(), nil
	default:
		st, err := db.NewStorage(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.RequestTimeout)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
}

func buildDependencies(cfg *server.Config, st store) server.Dependencies {
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	users := service.NewUserService(st, cfg.BcryptCost)
	return server.Dependencies{
		Users:  users,
		Tasks:  service.NewTaskService(st, st),
		Auth:   service.NewAuthService(st, tokens),
		Tokens: tokens,
		Health: st,
	}
}

// run serves until ctx is cancelled or the server fails, then shuts down
// within timeout.
func run(ctx context.Context, api runner, timeout time.Duration) error {
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- api.Start()
	}()

	select {
	case <-ctx.Done():
		logging.Info().Msg("shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := api.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("graceful shutdown failed")
			return err
		}
		logging.Info().Msg("graceful shutdown complete")
		return nil

	case err := <-serverErr:
		if err != nil {
			logging.Error().Err(err).Msg("server stopped")
		}
		return err
	}
}
