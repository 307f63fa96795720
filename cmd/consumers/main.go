package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parkhub/cmd/consumers/jobs"
	"parkhub/internal/config"
	"parkhub/internal/consumers"
	"parkhub/internal/logger"
)

func main() {
	cfg := config.Load()
	cfg.NATS.ClientID = "parkhub-consumers"
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.Get()

	log.Info("Starting consumers service...")

	consumerService, err := consumers.NewConsumerService(cfg)
	if err != nil {
		logger.Fatal("Failed to create consumer service", "error", err)
	}

	if err := consumerService.Start(); err != nil {
		logger.Fatal("Failed to start consumers", "error", err)
	}

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	expirationJob := jobs.NewBookingExpirationJob(consumerService.InventoryCoordinator())
	expirationJob.Start(jobCtx)

	log.Info("Consumers service started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down consumers service...")

	expirationJob.Stop()
	cancelJobs()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := consumerService.Shutdown(ctx); err != nil {
		log.Error("Error during shutdown", "error", err)
	}

	log.Info("Consumers service stopped")
}
