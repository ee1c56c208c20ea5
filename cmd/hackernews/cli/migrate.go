package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/config"
	"github.com/emilythestrangee/hackernews-clone/backend/internal/database"
)

// migrateCmd creates or updates the schema and exits.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		applyConfig(cfg)

		db, err := database.New(cfg.Database)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close() //nolint:errcheck // nothing to do on close failure

		if err := db.Migrate(); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}

		log.Info().Str("database", cfg.Database.Name).Msg("migration complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
