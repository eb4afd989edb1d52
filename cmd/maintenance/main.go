package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tutorkhata/khata_server/config"
	"github.com/tutorkhata/khata_server/internal/database"
	"github.com/tutorkhata/khata_server/internal/pkg/cron"
	"github.com/tutorkhata/khata_server/internal/pkg/logger"
	"github.com/tutorkhata/khata_server/internal/pkg/queue"
	"github.com/tutorkhata/khata_server/internal/repository"
	"github.com/tutorkhata/khata_server/internal/service"
)

var (
	dryRun     = flag.Bool("dry-run", true, "Only report what would change")
	sweep      = flag.Bool("sweep", true, "End finished trials and expire finished subscriptions")
	resetUsage = flag.Bool("reset-usage", false, "Zero every feature usage counter (monthly reset)")
	enqueue    = flag.Bool("enqueue", false, "Hand the selected jobs to the worker queue instead of running them here")
	settings   assignmentList
)

// assignmentList collects repeated -set key=value flags.
type assignmentList []string

func (l *assignmentList) String() string {
	return strings.Join(*l, ",")
}

func (l *assignmentList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

// selectedJobs maps the job flags to queue kinds, in run order.
func selectedJobs(sweep, resetUsage bool) []string {
	var kinds []string
	if sweep {
		kinds = append(kinds, queue.KindSweepLifecycle)
	}
	if resetUsage {
		kinds = append(kinds, queue.KindResetUsage)
	}
	return kinds
}

// maintenance runs the lifecycle jobs once for operators and external schedulers.
// Redis is only needed for -set and -enqueue.
func main() {
	flag.Var(&settings, "set", "Write an app setting as key=value (repeatable)")
	flag.Parse()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Env).With(zap.String("process", "maintenance"), zap.Bool("dry_run", *dryRun))
	defer log.Sync() //nolint:errcheck

	db, err := database.NewDB(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}
	defer database.Close(db, log) //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var rdb *redis.Client
	if len(settings) > 0 || *enqueue {
		rdb, err = database.NewRedis(&cfg.Redis)
		if err != nil {
			log.Fatal("failed to connect redis", zap.Error(err))
		}
		defer rdb.Close()
	}

	failed := false

	if len(settings) > 0 {
		if err := applySettings(ctx, settings, db, rdb, cfg, log); err != nil {
			log.Error("settings update failed", zap.Error(err))
			failed = true
		}
	}

	if *enqueue {
		jobs := cron.NewService(queue.NewQueue(rdb, cfg.Queue.LifecycleQueue), cfg.Cron.SweepInterval, log)
		for _, kind := range selectedJobs(*sweep, *resetUsage) {
			if *dryRun {
				log.Info("would enqueue job", zap.String("kind", kind))
				continue
			}
			if err := jobs.RunNow(ctx, kind); err != nil {
				log.Error("failed to enqueue job", zap.String("kind", kind), zap.Error(err))
				failed = true
				continue
			}
			log.Info("job enqueued", zap.String("kind", kind))
		}
		if failed {
			os.Exit(1)
		}
		return
	}

	planRepo := repository.NewPlanRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	usageRepo := repository.NewUsageRepository(db)

	// no publisher: nobody listens to a one-shot run
	subscriptionService := service.NewSubscriptionService(
		repository.NewTransactor(db), subRepo, planRepo, repository.NewEventRepository(db), nil, log)
	entitlementService := service.NewEntitlementService(planRepo, subRepo, usageRepo, nil, log)

	if *sweep {
		var result *service.SweepResult
		if *dryRun {
			result, err = subscriptionService.PreviewLifecycle(ctx)
		} else {
			result, err = subscriptionService.SweepLifecycle(ctx)
		}
		if err != nil {
			log.Error("lifecycle sweep failed", zap.Error(err))
			failed = true
		} else {
			log.Info("lifecycle sweep", zap.Int("trials_ended", result.TrialsEnded), zap.Int("expired", result.Expired))
		}
	}

	if *resetUsage {
		if *dryRun {
			if rows, err := usageRepo.CountNonZero(ctx); err != nil {
				log.Error("failed to count usage rows", zap.Error(err))
				failed = true
			} else {
				log.Info("usage reset", zap.Int64("rows", rows))
			}
		} else if rows, err := entitlementService.ResetAllUsage(ctx); err != nil {
			log.Error("usage reset failed", zap.Error(err))
			failed = true
		} else {
			log.Info("usage reset", zap.Int64("rows", rows))
		}
	}

	if failed {
		os.Exit(1)
	}
}

// applySettings writes through the settings cache so running servers see the change at once.
func applySettings(ctx context.Context, assignments []string, db *gorm.DB, rdb *redis.Client, cfg *config.Config, log *zap.Logger) error {
	if *dryRun {
		pairs, err := service.ParseAssignments(assignments)
		if err != nil {
			return err
		}
		for _, pair := range pairs {
			log.Info("would set", zap.String("key", pair[0]), zap.String("value", pair[1]))
		}
		return nil
	}

	cached := repository.NewCachedSettings(repository.NewSettingsRepository(db), rdb, cfg.Billing.SettingsCacheTTL)
	if err := service.NewSettingsService(cached).Apply(ctx, assignments); err != nil {
		return err
	}
	log.Info("settings updated", zap.Int("count", len(assignments)))
	return nil
}
