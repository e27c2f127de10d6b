/**
 * @description
 * This is the main entry point for the transfer service. It wires the
 * configuration, the database pool, the message broker, the external
 * authorization client and the HTTP server together, starts the outbox
 * dispatcher in the background and shuts everything down gracefully on
 * SIGINT/SIGTERM.
 */

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/pixpago/transfer-service/internal/api"
	"github.com/pixpago/transfer-service/internal/app"
	"github.com/pixpago/transfer-service/internal/config"
	"github.com/pixpago/transfer-service/internal/store"
	"github.com/pixpago/transfer-service/internal/telemetry"
	"github.com/pixpago/transfer-service/pkg/authclient"
	"github.com/pixpago/transfer-service/pkg/rabbitmq"
)

const transferRoutingKey = "transfer.completed"

func main() {
	// Load .env if present; real deployments rely on the environment.
	if err := godotenv.Load(); err != nil {
		log.Println("level=info component=server msg=\"no .env file found; using environment values\"")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=server msg=\"could not load config\" err=%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.OTLPEndpoint, "transfer-service")
	if err != nil {
		log.Fatalf("level=fatal component=server msg=\"could not init tracing\" err=%v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			log.Printf("level=warn component=server msg=\"tracer shutdown failed\" err=%v", err)
		}
	}()

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=server msg=\"invalid database url\" err=%v", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Fatalf("level=fatal component=server msg=\"could not connect to database\" err=%v", err)
	}
	defer db.Close()

	if err := db.Ping(ctx); err != nil {
		log.Fatalf("level=fatal component=server msg=\"database ping failed\" err=%v", err)
	}
	log.Println("level=info component=server msg=\"connected to database\"")

	producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("level=fatal component=server msg=\"could not connect to rabbitmq\" err=%v", err)
	}
	defer producer.Close()
	log.Println("level=info component=server msg=\"connected to rabbitmq\"")

	repo := store.NewPostgresRepository(db)
	authorizer := authclient.NewClient(cfg.AuthorizationURL)
	service := app.NewObservedService(app.NewService(repo, authorizer))
	handlers := api.NewTransferHandlers(service)

	dispatcher := store.NewOutboxDispatcher(db, producer, cfg.TransferEventExchange, transferRoutingKey, cfg.OutboxPollInterval())
	go dispatcher.Run(ctx)

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: api.TransferRoutes(handlers),
	}

	go func() {
		log.Printf("level=info component=server msg=\"listening\" port=%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("level=error component=server msg=\"server stopped\" err=%v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("level=info component=server msg=\"shutting down\"")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("level=warn component=server msg=\"server shutdown failed\" err=%v", err)
	}
	log.Println("level=info component=server msg=\"stopped\"")
}
