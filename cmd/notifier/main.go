/**
 * @description
 * This is the main entry point for the notifier process. It consumes
 * transfer.completed events from the broker, deduplicates them in Redis and
 * notifies payees through the external notification service. A small HTTP
 * server exposes health and metrics endpoints.
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

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/pixpago/transfer-service/internal/app"
	"github.com/pixpago/transfer-service/internal/config"
	"github.com/pixpago/transfer-service/pkg/notifyclient"
	"github.com/pixpago/transfer-service/pkg/rabbitmq"
)

const transferRoutingKey = "transfer.completed"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("level=info component=notifier msg=\"no .env file found; using environment values\"")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=notifier msg=\"could not load config\" err=%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("level=fatal component=notifier msg=\"invalid redis url\" err=%v", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("level=warn component=notifier msg=\"redis ping failed; dedup degraded\" err=%v", err)
	} else {
		log.Println("level=info component=notifier msg=\"connected to redis\"")
	}

	consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("level=fatal component=notifier msg=\"could not connect to rabbitmq\" err=%v", err)
	}
	defer consumer.Close()
	log.Println("level=info component=notifier msg=\"connected to rabbitmq\"")

	notifier := notifyclient.NewClient(cfg.NotificationURL)
	handler := app.NewNotificationConsumer(notifier, app.NewRedisDedupStore(redisClient))

	bindings := map[string]func([]byte) bool{
		transferRoutingKey: handler.HandleTransferCompleted,
	}
	if err := consumer.ConsumeWithBindings(cfg.TransferEventExchange, cfg.TransferEventQueue, bindings); err != nil {
		log.Fatalf("level=fatal component=notifier msg=\"could not start consumer\" err=%v", err)
	}
	log.Printf("level=info component=notifier msg=\"consuming\" exchange=%s queue=%s", cfg.TransferEventExchange, cfg.TransferEventQueue)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: ":" + cfg.ServerPort, Handler: mux}
	go func() {
		log.Printf("level=info component=notifier msg=\"listening\" port=%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("level=error component=notifier msg=\"server stopped\" err=%v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("level=info component=notifier msg=\"shutting down\"")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("level=warn component=notifier msg=\"server shutdown failed\" err=%v", err)
	}
	log.Println("level=info component=notifier msg=\"stopped\"")
}
