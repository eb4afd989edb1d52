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

	"github.com/tutorkhata/khata_server/config"
	"github.com/tutorkhata/khata_server/internal/api"
	"github.com/tutorkhata/khata_server/internal/api/handler"
	"github.com/tutorkhata/khata_server/internal/database"
	"github.com/tutorkhata/khata_server/internal/pkg/cron"
	"github.com/tutorkhata/khata_server/internal/pkg/logger"
	"github.com/tutorkhata/khata_server/internal/pkg/pubsub"
	"github.com/tutorkhata/khata_server/internal/pkg/queue"
	"github.com/tutorkhata/khata_server/internal/pkg/ws"
	"github.com/tutorkhata/khata_server/internal/repository"
	"github.com/tutorkhata/khata_server/internal/service"
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

	log := logger.New(cfg.Log.Env)
	defer log.Sync() //nolint:errcheck

	db, err := database.NewDB(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}
	defer database.Close(db, log) //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db, log); err != nil {
			log.Fatal("failed to migrate database", zap.Error(err))
		}
	}
	if cfg.Database.SeedData {
		if err := database.SeedCatalog(db, cfg.Billing.DefaultCurrency, log); err != nil {
			log.Fatal("failed to seed catalog", zap.Error(err))
		}
	}

	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}
	defer rdb.Close()
	log.Info("redis connected")

	jobQueue := queue.NewQueue(rdb, cfg.Queue.LifecycleQueue)
	publisher := pubsub.NewPublisher(rdb)
	hub := ws.NewHub(log)

	// repositories
	tx := repository.NewTransactor(db)
	userRepo := repository.NewUserRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	planRepo := repository.NewPlanRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	usageRepo := repository.NewUsageRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	eventRepo := repository.NewEventRepository(db)
	cachedSettings := repository.NewCachedSettings(settingsRepo, rdb, cfg.Billing.SettingsCacheTTL)

	// services
	allocator := service.NewFeeDayAllocator(cachedSettings, teacherRepo, cfg.Billing.MaxFeeDay)
	catalogService := service.NewCatalogService(planRepo)
	entitlementService := service.NewEntitlementService(planRepo, subRepo, usageRepo, publisher, log)
	subscriptionService := service.NewSubscriptionService(tx, subRepo, planRepo, eventRepo, publisher, log)
	teacherService := service.NewTeacherService(tx, teacherRepo, settingsRepo, allocator)
	authService := service.NewAuthService(tx, userRepo, teacherRepo, settingsRepo, allocator, cfg.JWT)

	router := api.NewRouter(
		handler.NewAuthHandler(authService),
		handler.NewPlanHandler(catalogService),
		handler.NewSubscriptionHandler(subscriptionService),
		handler.NewUsageHandler(entitlementService),
		handler.NewTeacherHandler(teacherService),
		handler.NewWebSocketHandler(hub, teacherRepo, cfg.JWT.Secret, cfg.CORS.AllowedOrigins, log),
		handler.NewHealthHandler(db),
		teacherRepo,
		entitlementService,
		cfg,
		log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// billing events published by any process reach this server's websockets
	go func() {
		err := pubsub.NewSubscriber(rdb).Subscribe(ctx, hub.Relay)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("billing event relay stopped", zap.Error(err))
		}
	}()

	var scheduler *cron.Service
	if cfg.Cron.Enabled {
		scheduler = cron.NewService(jobQueue, cfg.Cron.SweepInterval, log)
		scheduler.Start()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	if scheduler != nil {
		scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	log.Info("server stopped", zap.Int("open_websockets", hub.ConnectionCount()))
}
