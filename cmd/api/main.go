package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/BarkinBalci/dataset-validation-service/docs"
	"github.com/BarkinBalci/dataset-validation-service/internal/app"
	"github.com/BarkinBalci/dataset-validation-service/internal/config"
	"github.com/BarkinBalci/dataset-validation-service/internal/handler"
	"github.com/BarkinBalci/dataset-validation-service/internal/logger"
	"github.com/BarkinBalci/dataset-validation-service/internal/queue"
	"github.com/BarkinBalci/dataset-validation-service/internal/queue/sqs"
	"github.com/BarkinBalci/dataset-validation-service/internal/service"
)

// @title Dataset Validation Service API
// @version 1.0
// @description API for pushing schema-validated items to datasets
// @host localhost:8080
// @BasePath /
// @schemes http https
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Service.Environment, cfg.Log.File)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting API service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Service.APIPort),
		zap.String("run_id", cfg.Actor.RunID))

	docs.SwaggerInfo.Host = cfg.Service.Host

	ctx := context.Background()

	rt, err := app.NewRuntime(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize validated pusher", zap.Error(err))
	}
	defer rt.Close()

	// The queue is optional; without it POST /items/async answers 503
	var publisher queue.QueuePublisher
	if cfg.SQS.QueueURL != "" {
		sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log)
		if err != nil {
			log.Fatal("Failed to create SQS client", zap.Error(err))
		}
		publisher = sqsClient
	}

	repo, err := rt.OutcomeRepository(ctx)
	if err != nil {
		log.Fatal("Failed to open outcome log", zap.Error(err))
	}

	pushService := service.NewPushService(rt.Pusher, publisher, repo, cfg.Actor.RunID, log)

	h := handler.NewHandler(pushService, log)

	addr := fmt.Sprintf(":%s", cfg.Service.APIPort)
	server := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("API server starting", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start API server", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down API server gracefully")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down API server", zap.Error(err))
	}

	if err := pushService.Checkpoint(shutdownCtx); err != nil {
		log.Error("Failed to save validation stats on shutdown", zap.Error(err))
	}

	stats := pushService.Stats()
	log.Info("API server stopped",
		zap.Int("total_items", stats.TotalItems),
		zap.Int("valid_items", stats.ValidItems),
		zap.Int("invalid_items", stats.InvalidItems))
}
