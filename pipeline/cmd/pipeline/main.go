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

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/urbanwatch-systems/urbanwatch/common/logging"
	"github.com/urbanwatch-systems/urbanwatch/common/messaging"
	"github.com/urbanwatch-systems/urbanwatch/pipeline/internal/aggregate"
	"github.com/urbanwatch-systems/urbanwatch/pipeline/internal/config"
	"github.com/urbanwatch-systems/urbanwatch/pipeline/internal/consumer"
	"github.com/urbanwatch-systems/urbanwatch/pipeline/internal/correlation"
	"github.com/urbanwatch-systems/urbanwatch/pipeline/internal/detect"
	"github.com/urbanwatch-systems/urbanwatch/pipeline/internal/dispatch"
	"github.com/urbanwatch-systems/urbanwatch/pipeline/internal/handlers"
	"github.com/urbanwatch-systems/urbanwatch/pipeline/internal/repository"
	"github.com/urbanwatch-systems/urbanwatch/pipeline/internal/server"

	natsclient "github.com/urbanwatch-systems/urbanwatch/common/messaging/nats"
)

func main() {
	// Parse command-line flags
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
	).With(logging.Service("pipeline"))
	logging.SetDefault(logger)

	slog.Info("Starting Pipeline service",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Logging.Level),
		slog.String("log_format", cfg.Logging.Format),
	)

	// Run database migrations
	log.Println("Running database migrations...")
	m, err := migrate.New("file://"+cfg.Postgres.MigrationsPath, cfg.Postgres.URL)
	if err != nil {
		log.Fatalf("Failed to initialize migrations: %v", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	// Initialize repository
	repo, err := repository.NewPostgresRepository(context.Background(), cfg.Postgres.URL, cfg.Postgres.MaxConns)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer repo.Close()

	// Initialize the correlation store
	store, err := correlation.NewRedisStore(context.Background(), cfg.Redis.URL, cfg.Correlation.SignatureTTL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer store.Close()

	// Connect the event bus and provision streams and the durable consumer
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

	ctx := context.Background()
	if _, err := jsClient.CreateOrUpdateStream(ctx, natsclient.EventsStream); err != nil {
		log.Fatalf("Failed to provision events stream: %v", err)
	}
	if _, err := jsClient.CreateOrUpdateStream(ctx, natsclient.AlertsStream); err != nil {
		log.Fatalf("Failed to provision alerts stream: %v", err)
	}
	if _, err := jsClient.CreateOrUpdateConsumer(ctx, natsclient.EventsStream.Name,
		natsclient.DefaultConsumerConfig(messaging.QueueDetectWorkers, messaging.SubjectEventsStandardized),
	); err != nil {
		log.Fatalf("Failed to provision detect consumer: %v", err)
	}

	// Load the dispatch routing table
	table, err := dispatch.LoadTable(cfg.Dispatch.RoutingPath)
	if err != nil {
		log.Fatalf("Failed to load routing table: %v", err)
	}
	dispatcher := dispatch.New(dispatch.Config{
		Table:    table,
		BaseURL:  cfg.Dispatch.EntityBaseURL,
		Override: cfg.Dispatch.EntityOverride,
		Timeout:  cfg.Dispatch.EntityTimeout,
	}, logger)

	// Assemble the event processor
	aggregator := aggregate.New(repo, jsClient, logger, aggregate.WithWindow(cfg.Correlation.WindowSize))
	processor := consumer.NewProcessor(repo, detect.NewEngine(), store, aggregator, dispatcher, logger)

	// Start consuming standardized events
	stop, err := jsClient.ConsumeMessages(ctx, natsclient.EventsStream.Name, messaging.QueueDetectWorkers, processor.HandleMessage)
	if err != nil {
		log.Fatalf("Failed to start event consumer: %v", err)
	}
	log.Printf("Consuming %s as %s", messaging.SubjectEventsStandardized, messaging.QueueDetectWorkers)

	// Initialize the query surface
	router := server.NewRouter(
		handlers.NewQueryHandler(repo, logger),
		handlers.NewHealthHandler(jsClient),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Pipeline service listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")

	// Stop accepting new messages; in-flight events finish their run.
	stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if err := jsClient.Drain(); err != nil {
		log.Printf("Bus drain failed: %v", err)
	}

	log.Println("Pipeline stopped")
}
