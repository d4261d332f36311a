// Package cmd provides the CLI commands for ecoctl.
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/carbon-engine/api"
	"github.com/warp/carbon-engine/carbon"
	"github.com/warp/carbon-engine/config"
	"github.com/warp/carbon-engine/logging"
	"github.com/warp/carbon-engine/store/sqlite"
)

var (
	cfgFile string
	dbPath  string
	verbose bool

	cfg    = config.Default()
	logger = zap.NewNop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ecoctl",
	Short: "Attribute AI energy, carbon and cost from the command line",
	Long: `ecoctl runs the carbon engine directly against a SQLite database.

It imports meter readings, forecasts AI energy use and runs what-if
simulations without starting the HTTP server.

Examples:
  ecoctl seed --db carbon.db
  ecoctl import --company <id> readings.csv
  ecoctl forecast --company <id> --months 6
  ecoctl simulate region --company <id> --to SE`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(regionsCmd)
	rootCmd.AddCommand(companiesCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(forecastCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(seedCmd)
}

func initConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	cfg = loaded
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}

	// Initialize logging
	if verbose {
		cfg.Logging.Level = "debug"
	} else {
		cfg.Logging.Level = "warn"
	}
	l, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("error initializing logging: %w", err)
	}
	logger = l
	return nil
}

// engine is the wiring shared by commands that touch the database.
type engine struct {
	*api.Handler
	store *sqlite.Store
}

func openEngine() (*engine, error) {
	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &engine{
		Handler: api.NewHandler(store, registry, api.Options{Logger: logger}),
		store:   store,
	}, nil
}

func (e *engine) Close() error {
	return e.store.Close()
}

func registry() (*carbon.Registry, error) {
	return cfg.Registry()
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
