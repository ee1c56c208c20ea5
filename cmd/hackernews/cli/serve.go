package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/auth"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/config"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/database"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/graph"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/pubsub"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/server"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/store"
)

// serveCmd runs the API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the GraphQL API server",
	Long: `Start the GraphQL API on PORT (default 4000) at /graphql, together with
the Prometheus metrics listener when METRICS_ENABLED is set.

Tables are migrated on startup unless DB_AUTO_MIGRATE=false.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyConfig(cfg)

	log.Info().
		Str("env", cfg.App.Environment).
		Str("addr", cfg.Server.Addr()).
		Msg("starting hackernews api")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("error closing database")
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
	}

	srv, err := buildServer(cfg, db)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(gctx); err != nil {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	if cfg.Metrics.Enabled {
		g.Go(func() error {
			if err := srv.StartMetrics(gctx); err != nil {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("service error")
		return err
	}

	log.Info().Msg("hackernews api stopped")
	return nil
}

// buildServer assembles the request pipeline on top of an open database.
func buildServer(cfg *config.Config, db database.Service) (*server.Server, error) {
	creds, err := auth.New(cfg.Auth.Secret,
		auth.WithCost(cfg.Auth.BcryptCost),
		auth.WithTTL(cfg.Auth.TokenTTL),
	)
	if err != nil {
		return nil, fmt.Errorf("creating credentials: %w", err)
	}

	gateway := store.NewGormStore(db.GetDB())
	events := pubsub.NewBroadcaster(cfg.Events.BufferSize)
	builder := graph.NewContextBuilder(gateway, creds, events)

	exec, err := graph.NewExecutor(graph.NewResolver(creds))
	if err != nil {
		return nil, fmt.Errorf("building schema: %w", err)
	}

	return server.NewServer(cfg, exec, builder, db), nil
}
