// Package cli implements the hackernews command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/config"
)

var (
	envFile string
	verbose bool
)

// rootCmd is the base command for the hackernews CLI.
var rootCmd = &cobra.Command{
	Use:   "hackernews",
	Short: "GraphQL API for a Hackernews clone",
	Long: `hackernews serves a GraphQL API for sharing links, commenting on them
and voting for them. Data lives in PostgreSQL; new links and votes are
pushed to subscribers over WebSocket or server-sent events.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFile(envFile); err != nil {
			return err
		}
		setupLogging(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// loadEnvFile loads path into the environment. A missing file is fine;
// variables already set win over the file.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// setupLogging configures the global zerolog logger. --verbose always wins
// over the configured level.
func setupLogging(env, level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if verbose {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)

	// Pretty console output outside production
	if env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

// applyConfig re-applies logging once the validated config is known.
func applyConfig(cfg *config.Config) {
	setupLogging(cfg.App.Environment, cfg.App.LogLevel)
}
