/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave balance engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load JSON configuration (entitlement, rejection policy, holidays)
  3. Initialize SQLite store
  4. Build the immutable holiday calendar snapshot
  5. Wire the leave service, handler, and router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: leave.db)
           Use ":memory:" for in-memory database
  -config  Optional JSON config path; defaults apply when omitted

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the year-roll scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/leave.db"

  # Run with in-memory database and custom config
  ./server -db=":memory:" -config=./leave.json

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration schema
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

	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/config"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "leave.db", "SQLite database path")
	configPath := flag.String("config", "", "JSON config path (optional)")
	flag.Parse()

	// Configuration
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Calendar is an immutable snapshot: stored holidays plus the ones
	// from config, taken once at startup.
	calendar, err := store.LoadCalendar(context.Background(), cfg.Holidays...)
	if err != nil {
		log.Fatalf("Failed to load holiday calendar: %v", err)
	}
	log.Printf("Loaded %d holidays into the work calendar", calendar.Len())

	// Wire the engine
	service := leave.NewService(store, store, calendar, cfg.InitialEntitlement)
	service.Rejection = cfg.RejectionPolicy

	handler := api.NewHandler(store, service)
	router := api.NewRouter(handler)

	// Background year-roll provisioning
	scheduler := api.NewYearRollScheduler(store, service)
	scheduler.Start()
	defer scheduler.Stop()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
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
