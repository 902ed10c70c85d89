package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/urbanwatch-systems/urbanwatch/common/logging"
	"github.com/urbanwatch-systems/urbanwatch/common/models"
	"github.com/urbanwatch-systems/urbanwatch/ingress/internal/config"
	"github.com/urbanwatch-systems/urbanwatch/ingress/internal/deadletter"
	"github.com/urbanwatch-systems/urbanwatch/ingress/internal/enrich"
	"github.com/urbanwatch-systems/urbanwatch/ingress/internal/handlers"
	"github.com/urbanwatch-systems/urbanwatch/ingress/internal/schema"
	"github.com/urbanwatch-systems/urbanwatch/ingress/internal/server"
	"github.com/urbanwatch-systems/urbanwatch/ingress/internal/service"

	natsclient "github.com/urbanwatch-systems/urbanwatch/common/messaging/nats"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("ingress"))
	logging.SetDefault(logger)

	slog.Info("Starting Ingress service",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Logging.Level),
		slog.String("log_format", cfg.Logging.Format),
	)
	if *configPath != "" {
		slog.Info("Loaded configuration", slog.String("config_path", *configPath))
	}

	// Connect the event bus and provision the streams the pipeline
	// consumes from, so publishes survive consumer restarts.
	jsClient, err := natsclient.NewJetStreamClient(natsclient.Config{
		URL:           cfg.NATS.URL,
		Name:          cfg.NATS.Name,
		MaxReconnects: cfg.NATS.MaxReconnects,
		ReconnectWait: cfg.NATS.ReconnectWait,
		Timeout:       cfg.NATS.Timeout,
	})
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer jsClient.Close()

	if _, err := jsClient.CreateOrUpdateStream(context.Background(), natsclient.EventsStream); err != nil {
		log.Fatalf("Failed to provision events stream: %v", err)
	}
	slog.Info("Event bus connected", slog.String("url", cfg.NATS.URL))

	// Assemble the intake path: validate, enrich, publish, dead-letter.
	zoneCoords := make(map[string]models.Coordinates, len(cfg.Enrichment.ZoneCoords))
	for zone, c := range cfg.Enrichment.ZoneCoords {
		if len(c) == 2 {
			zoneCoords[zone] = models.Coordinates{Lat: c[0], Lon: c[1]}
		}
	}
	enricher := enrich.New(cfg.Enrichment.DefaultZone, zoneCoords)
	dlqWriter := deadletter.NewWriter(jsClient, logger)
	ingestService := service.NewIngestService(schema.NewValidator(), enricher, jsClient, dlqWriter, logger)

	eventsHandler := handlers.NewEventsHandler(ingestService, logger, cfg.Ingestion.MaxEventSize, cfg.Ingestion.MaxBatchSize)
	healthHandler := handlers.NewHealthHandler(jsClient)
	router := server.NewRouter(eventsHandler, healthHandler)

	// Create server with config values
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Ingress service listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// Flush in-flight publishes before exiting.
	if err := jsClient.Drain(); err != nil {
		log.Printf("Bus drain failed: %v", err)
	}

	log.Println("Server stopped")
}
