/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the sabbatical engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load YAML configuration
  3. Initialize SQLite store (rows + directory)
  4. Build alias table, chain builder, permission resolver, engine
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: sabbatical.db)
           Use ":memory:" for an in-memory database
  -config  YAML config path (default: none, shipped defaults)
  -seed    Mount POST /api/seed for demo data (default: false)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database and config
  ./server -db="./data/sabbatical.db" -config="./config.yaml"

  # Run in-memory with demo seeding
  ./server -db=":memory:" -seed

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration shape
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/firstline/sabbatical-engine/access"
	"github.com/firstline/sabbatical-engine/api"
	"github.com/firstline/sabbatical-engine/config"
	"github.com/firstline/sabbatical-engine/directory"
	"github.com/firstline/sabbatical-engine/notify"
	"github.com/firstline/sabbatical-engine/sabbatical"
	"github.com/firstline/sabbatical-engine/store/sqlite"
)

func main() {
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "sabbatical.db", "SQLite database path")
	configPath := flag.String("config", "", "YAML config path (optional)")
	seed := flag.Bool("seed", false, "mount POST /api/seed for demo data")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer store.Close()

	aliases, err := directory.NewAliasTable(cfg.Aliases)
	if err != nil {
		log.WithError(err).Fatal("invalid alias configuration")
	}

	chains := &directory.ChainBuilder{
		Directory: store,
		Aliases:   aliases,
		MaxHops:   cfg.MaxChainHops,
		Log:       log,
	}
	resolver := access.NewResolver(store, aliases, chains, cfg.NetworkAdmins, cfg.SchoolLeaderTitles)
	chains.IsAdmin = resolver.IsNetworkAdmin

	engine := &sabbatical.Engine{
		Store:     store,
		Directory: store,
		Aliases:   aliases,
		Resolver:  resolver,
		Chains:    chains,
		Config:    cfg,
		Notifier:  &notify.LogSink{Log: log},
		Log:       log,
	}

	var seeder *api.Seeder
	if *seed {
		seeder = &api.Seeder{Saver: store, Log: log}
	}

	handler := api.NewHandler(engine, log)
	router := api.NewRouter(handler, seeder)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server stopped")
}
