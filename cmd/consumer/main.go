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

	"github.com/BarkinBalci/dataset-validation-service/internal/app"
	"github.com/BarkinBalci/dataset-validation-service/internal/config"
	"github.com/BarkinBalci/dataset-validation-service/internal/consumer"
	"github.com/BarkinBalci/dataset-validation-service/internal/logger"
	"github.com/BarkinBalci/dataset-validation-service/internal/queue/sqs"
	"github.com/BarkinBalci/dataset-validation-service/internal/repository"
	"github.com/BarkinBalci/dataset-validation-service/internal/service"
)

const shutdownTimeout = 30 * time.Second

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

	log.Info("Starting queue consumer",
		zap.String("environment", cfg.Service.Environment),
		zap.String("run_id", cfg.Actor.RunID),
		zap.String("queue_url", cfg.SQS.QueueURL))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.NewRuntime(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize validated pusher", zap.Error(err))
	}
	defer rt.Close()

	repo, err := rt.OutcomeRepository(ctx)
	if err != nil {
		log.Fatal("Failed to open outcome log", zap.Error(err))
	}

	sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log)
	if err != nil {
		log.Fatal("Failed to create SQS client", zap.Error(err))
	}

	pushService := service.NewPushService(rt.Pusher, nil, repo, cfg.Actor.RunID, log)
	c := consumer.NewConsumer(cfg, sqsClient, pushService, log)

	health := newHealthServer(":"+cfg.Consumer.HealthCheckPort, repo, log)
	go func() {
		log.Info("Health check server starting", zap.String("address", health.Addr))
		if err := health.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Health check server error", zap.Error(err))
		}
	}()

	// Start returns once ctx is cancelled and the last batch is pushed.
	if err := c.Start(ctx); err != nil {
		log.Error("Consumer stopped with error", zap.Error(err))
	}
	log.Info("Consumer stopped, saving validation stats")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := health.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down health check server", zap.Error(err))
	}

	if err := pushService.Checkpoint(shutdownCtx); err != nil {
		log.Error("Failed to save validation stats on shutdown", zap.Error(err))
	}

	stats := pushService.Stats()
	log.Info("Queue consumer stopped",
		zap.Int("total_items", stats.TotalItems),
		zap.Int("valid_items", stats.ValidItems),
		zap.Int("invalid_items", stats.InvalidItems))
}

// newHealthServer reports 503 while the outcome log, when configured, is unreachable.
func newHealthServer(addr string, repo repository.OutcomeRepository, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if repo != nil {
			if err := repo.Ping(r.Context()); err != nil {
				log.Warn("Health check failed", zap.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}
