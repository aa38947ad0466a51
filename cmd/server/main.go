/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the focus engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags, load optional YAML config
  2. Validate the rank ladder (fatal on a malformed table)
  3. Initialize SQLite store
  4. Wire ledger, coordinator and gate manager
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides config)
  -db      SQLite database path (overrides config)
           Use ":memory:" for an in-memory database
  -config  YAML config file path (optional)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close gate sessions (releases countdown tickers)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/focus.db"

  # Run with a config file
  ./server -config="./focus.yaml"

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: YAML configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arise/focus-engine/api"
	"github.com/arise/focus-engine/config"
	"github.com/arise/focus-engine/gate"
	"github.com/arise/focus-engine/ledger"
	"github.com/arise/focus-engine/store/sqlite"
	"github.com/arise/focus-engine/tasks"
)

func main() {
	// Flags
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	configPath := flag.String("config", "", "YAML config file path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	// The rank ladder is static; a malformed table is a programming
	// error and must not reach serving.
	tiers := ledger.DefaultTiers()
	if err := ledger.ValidateTiers(tiers); err != nil {
		log.Fatalf("Invalid tier table: %v", err)
	}

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Wire the engine
	eng := ledger.New(store.Ledger())
	calc, err := ledger.NewCalculator(store.Ledger(), tiers)
	if err != nil {
		log.Fatalf("Failed to build calculator: %v", err)
	}
	coordinator := tasks.NewCoordinator(store.Tasks(), eng, store.Settings())
	gateManager := gate.NewManager(eng, calc, store.Settings(), store.Apps())
	defer gateManager.CloseAll()

	// Initialize handler and router
	handler := api.NewHandler(coordinator, eng, calc, store.Settings(), store.Apps(), gateManager, cfg.TrendWindow())
	router := api.NewRouter(handler, cfg.CORSOrigins)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", cfg.Port)
		log.Printf("📊 API available at http://localhost:%d/api", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
