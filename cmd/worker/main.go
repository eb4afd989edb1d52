package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/tutorkhata/khata_server/config"
	"github.com/tutorkhata/khata_server/internal/database"
	"github.com/tutorkhata/khata_server/internal/pkg/logger"
	"github.com/tutorkhata/khata_server/internal/pkg/pubsub"
	"github.com/tutorkhata/khata_server/internal/pkg/queue"
	"github.com/tutorkhata/khata_server/internal/repository"
	"github.com/tutorkhata/khata_server/internal/service"
	"github.com/tutorkhata/khata_server/internal/worker"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Env).With(zap.String("process", "worker"))
	defer log.Sync() //nolint:errcheck

	db, err := database.NewDB(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}
	defer database.Close(db, log) //nolint:errcheck

	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()

	jobQueue := queue.NewQueue(rdb, cfg.Queue.LifecycleQueue)
	publisher := pubsub.NewPublisher(rdb)

	planRepo := repository.NewPlanRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)

	subscriptionService := service.NewSubscriptionService(
		repository.NewTransactor(db), subRepo, planRepo, repository.NewEventRepository(db), publisher, log)
	entitlementService := service.NewEntitlementService(
		planRepo, subRepo, repository.NewUsageRepository(db), publisher, log)

	processor := worker.NewProcessor(subscriptionService, entitlementService, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pending, err := jobQueue.Length(ctx)
	if err != nil {
		log.Warn("failed to read queue length", zap.Error(err))
	}
	log.Info("worker started",
		zap.String("queue", cfg.Queue.LifecycleQueue),
		zap.Int("max_workers", cfg.Queue.MaxWorkers),
		zap.Int64("pending", pending))
	worker.Run(ctx, jobQueue, processor, cfg.Queue.MaxWorkers, log)
	log.Info("worker shutdown complete")
}
