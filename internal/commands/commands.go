// Package commands holds the cobra commands of collabd.
package commands

import (
	"context"
	"fmt"

	"github.com/fernandezvara/dbkit"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fernandezvara/collabkit"
	"github.com/fernandezvara/collabkit/internal/config"
	"github.com/fernandezvara/collabkit/internal/logging"
)

// NewRootCmd returns the collabd root command with all sub-commands.
func NewRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "collabd",
		Short:         "Access-controlled API for documents, whiteboards, projects and workspaces",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	load := func() (*config.Config, error) {
		return config.Load(envFile)
	}

	root.AddCommand(
		newServeCmd(load),
		newMigrateCmd(load),
		newTokenCmd(load),
	)
	return root
}

type loader func() (*config.Config, error)

// runtime is what every command that talks to the database needs.
type runtime struct {
	cfg     *config.Config
	log     *logging.Logger
	db      *dbkit.DBKit
	service *collabkit.Service
}

func (rt *runtime) Close() {
	if rt.db != nil {
		if err := rt.db.Close(); err != nil {
			rt.log.Warn().Err(err).Msg("closing database")
		}
	}
	_ = rt.log.Close()
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	b := logging.New().Level(cfg.LogLevel).Console(cfg.IsDevelopment())
	if cfg.LogFile != "" {
		b = b.FromPath(cfg.LogFile)
	}
	return b.Make()
}

// open loads the configuration, connects to the database and builds the service.
func open(ctx context.Context, load loader) (*runtime, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	rt := &runtime{cfg: cfg, log: log}

	rt.db, err = dbkit.New(dbkit.Config{URL: cfg.DatabaseURL})
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	rt.service, err = collabkit.NewService(
		collabkit.DefaultRegistry(cfg.MaxCollaborators),
		rt.db,
		collabkit.WithLogger(log.With().Str("component", "collabkit").Logger()),
	)
	if err != nil {
		rt.Close()
		return nil, err
	}

	if err := rt.service.ConfigureConnectionPool(collabkit.PoolConfig{
		MaxOpenConnections: cfg.DBMaxOpenConns,
		MaxIdleConnections: cfg.DBMaxIdleConns,
	}); err != nil {
		rt.Close()
		return nil, err
	}

	if err := rt.service.Ping(ctx); err != nil {
		rt.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return rt, nil
}

func migrate(ctx context.Context, service *collabkit.Service, log zerolog.Logger) error {
	applied, err := service.RunMigrations(ctx)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	log.Info().Strs("applied", applied).Int("count", len(applied)).Msg("migrations done")
	return nil
}
