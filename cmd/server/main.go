/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the carbon engine HTTP server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and load the YAML config
  2. Build the logger
  3. Initialize SQLite store and the region registry
  4. Connect the Kafka publisher (when enabled)
  5. Create API handler and router
  6. Seed demo data on an empty database (when enabled)
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML config file (optional, defaults apply without it)
  -port    HTTP server port, overrides server.port
  -db      SQLite database path, overrides database.path
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (server.shutdown_timeout)
  3. Flush the publisher and close the database
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/carbon.db"

  # Run with in-memory database and demo data
  ./server -db=":memory:" -config=dev.yaml

SEE ALSO:
  - config/config.go: Configuration keys
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/carbon-engine/api"
	"github.com/warp/carbon-engine/config"
	"github.com/warp/carbon-engine/events"
	"github.com/warp/carbon-engine/generic"
	"github.com/warp/carbon-engine/logging"
	"github.com/warp/carbon-engine/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Flags
	configPath := flag.String("config", "", "YAML config file")
	port := flag.String("port", "", "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	registry, err := cfg.Registry()
	if err != nil {
		return err
	}

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	publisher, err := events.NewPublisher(cfg.Events.Kafka, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	opts := api.Options{Logger: logger}
	if publisher != nil {
		opts.Publisher = publisher
	}
	handler := api.NewHandler(store, registry, opts)
	router := api.NewRouter(handler, cfg.Server.CORSOrigins)

	if cfg.Demo.SeedOnStart {
		if err := seedIfEmpty(context.Background(), handler, logger); err != nil {
			logger.Warn("demo seed failed", zap.Error(err))
		}
	}

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", server.Addr),
			zap.String("database", cfg.Database.Path),
			zap.Bool("events", cfg.Events.Kafka.Enabled),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// seedIfEmpty loads the demo company unless companies already exist.
func seedIfEmpty(ctx context.Context, h *api.Handler, logger *zap.Logger) error {
	companies, err := h.Directory.Companies(ctx)
	if err != nil {
		return err
	}
	if len(companies) > 0 {
		logger.Info("sample data already exists, skipping demo seed")
		return nil
	}
	company, err := api.SeedDemo(ctx, h.Directory, h.Ledger, generic.Today())
	if err != nil {
		return err
	}
	logger.Info("demo company seeded", zap.String("company_id", company.ID))
	return nil
}
