package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/axellelanca/linkshorter/internal/config"
	"github.com/axellelanca/linkshorter/internal/logging"
	"github.com/axellelanca/linkshorter/internal/store"
)

// Cfg holds the configuration loaded before any subcommand runs.
var Cfg *config.Config

// RootCmd is the base command. Subcommands register themselves from their
// own init functions in cmd/cli and cmd/server.
var RootCmd = &cobra.Command{
	Use:   "linkshorter",
	Short: "A token-guarded URL shortener",
	Long: `linkshorter maps short paths to target URLs and redirects visitors.
Writes over HTTP require a token; tokens and mappings may expire.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringP("db", "d", "", "path to the SQLite database file (env DATABASE_PATH)")
	if err := viper.BindPFlag("database.path", RootCmd.PersistentFlags().Lookup("db")); err != nil {
		log.Fatalf("Failed to bind --db flag: %v", err)
	}
}

func initConfig() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("Failed to load environment file: %v", err)
	}

	var err error
	Cfg, err = config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if _, err := logging.Setup(Cfg.Log.Level, Cfg.Log.Format, os.Stderr); err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
}

// OpenStore opens the configured database, creating the schema when needed.
func OpenStore() (*store.Store, error) {
	st, err := store.Open(Cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", Cfg.Database.Path, err)
	}
	return st, nil
}
