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

	"github.com/gin-gonic/gin"

	"github.com/example/order-service/internal/config"
	"github.com/example/order-service/internal/consumer"
	"github.com/example/order-service/internal/db"
	"github.com/example/order-service/internal/discovery"
	"github.com/example/order-service/internal/handlers"
	"github.com/example/order-service/internal/logger"
	"github.com/example/order-service/internal/messaging"
	"github.com/example/order-service/internal/notify"
	"github.com/example/order-service/internal/service"
)

func main() {
	cfgPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg, err := logger.New(cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logg.Sync()

	// Connect to PostgreSQL
	database, err := db.NewPostgresDB(
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.DBName, logg)
	if err != nil {
		logg.Fatalw("failed to connect to database", "error", err)
	}
	defer database.Close()

	if err := database.EnsureSchema(); err != nil {
		logg.Fatalw("failed to ensure schema", "error", err)
	}

	// Connect to RabbitMQ and declare the incoming queue with its DLQ
	rabbit, err := messaging.NewRabbitMQ(
		cfg.RabbitMQ.Host, cfg.RabbitMQ.Port, cfg.RabbitMQ.User, cfg.RabbitMQ.Password, logg)
	if err != nil {
		logg.Fatalw("failed to connect to RabbitMQ", "error", err)
	}
	defer rabbit.Close()

	if err := rabbit.DeclareQueueWithDLQ(cfg.RabbitMQ.IncomingQueue, cfg.RabbitMQ.DLQ, cfg.RabbitMQ.MessageTTL); err != nil {
		logg.Fatalw("failed to declare queues", "error", err)
	}
	if err := rabbit.Qos(cfg.RabbitMQ.Prefetch); err != nil {
		logg.Fatalw("failed to set prefetch", "error", err)
	}

	// Status-change notifications are optional: no redis addr, no notifier
	var notifier service.StatusNotifier
	if cfg.Redis.Addr != "" {
		publisher, err := notify.NewPublisher(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logg)
		if err != nil {
			logg.Warnw("redis unavailable, status notifications disabled", "error", err)
		} else {
			defer publisher.Close()
			notifier = publisher
		}
	}

	repo := db.NewOrderRepository(database)
	processor := service.NewProcessor(repo, notifier, logg)
	acknowledger := service.NewAcknowledger(repo, notifier, logg)
	query := service.NewQuery(repo, logg)

	// Start the message consumer
	deliveries, err := rabbit.Consume(cfg.RabbitMQ.IncomingQueue)
	if err != nil {
		logg.Fatalw("failed to start consuming", "error", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go consumer.NewOrderConsumer(processor, logg).Run(ctx, deliveries)

	// Register with Consul if configured
	if cfg.Consul.Enabled {
		consulClient, err := discovery.NewConsulClient(cfg.Consul.Host, cfg.Consul.Port, logg)
		if err != nil {
			logg.Warnw("consul unavailable, skipping registration", "error", err)
		} else {
			serviceID := fmt.Sprintf("%s-%d", cfg.App.Name, cfg.HTTP.Port)
			if err := consulClient.Register(discovery.ServiceConfig{
				Name: cfg.App.Name,
				ID:   serviceID,
				Port: cfg.HTTP.Port,
				Tags: []string{"orders", "http"},
			}); err != nil {
				logg.Warnw("failed to register with consul", "error", err)
			} else {
				defer consulClient.Deregister(serviceID)
			}
		}
	}

	// Setup router
	orderHandler := handlers.NewOrderHandler(query, acknowledger, logg)
	router := gin.Default()

	router.GET("/health", orderHandler.HealthCheck)
	router.GET("/orders", orderHandler.ListOrders)
	router.GET("/orders/:id", orderHandler.GetOrder)
	router.POST("/orders/:id/ack", orderHandler.AcknowledgeOrder)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		logg.Infof("🚀 order service listening on :%d", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatalw("http server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Warnw("http shutdown failed", "error", err)
	}
}
