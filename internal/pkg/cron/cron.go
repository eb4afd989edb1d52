package cron

import (
	"context"
	"sync"
	"time"

	robfig "github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tutorkhata/khata_server/internal/pkg/queue"
)

// MonthlyResetSchedule fires at 00:00 UTC on the first day of every month.
const MonthlyResetSchedule = "0 0 1 * *"

// Dispatcher hands a job kind to whoever executes it (the Redis queue in production).
type Dispatcher interface {
	Dispatch(ctx context.Context, kind string) error
}

// Service schedules the monthly usage reset and the periodic lifecycle sweep.
type Service struct {
	dispatcher    Dispatcher
	sweepInterval time.Duration
	log           *zap.Logger
	scheduler     *robfig.Cron
	stopOnce      sync.Once
}

func NewService(dispatcher Dispatcher, sweepInterval time.Duration, log *zap.Logger) *Service {
	if sweepInterval <= 0 {
		sweepInterval = time.Hour
	}
	s := &Service{
		dispatcher:    dispatcher,
		sweepInterval: sweepInterval,
		log:           log,
		scheduler:     robfig.New(robfig.WithLocation(time.UTC)),
	}

	_, _ = s.scheduler.AddFunc(MonthlyResetSchedule, func() { s.dispatch(queue.KindResetUsage) })
	s.scheduler.Schedule(robfig.Every(sweepInterval), robfig.FuncJob(func() { s.dispatch(queue.KindSweepLifecycle) }))
	return s
}

func (s *Service) Start() {
	s.scheduler.Start()
	s.log.Info("cron started",
		zap.Duration("sweep_interval", s.sweepInterval),
		zap.Time("next_usage_reset", NextMonthStart(time.Now())))
}

// Stop waits for running jobs to finish.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		<-s.scheduler.Stop().Done()
		s.log.Info("cron stopped")
	})
}

// NextMonthStart returns 00:00 UTC on the first day of the month after t.
func NextMonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}

func (s *Service) dispatch(kind string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.dispatcher.Dispatch(ctx, kind); err != nil {
		s.log.Error("failed to dispatch job", zap.String("kind", kind), zap.Error(err))
		return
	}
	s.log.Info("job dispatched", zap.String("kind", kind))
}

// RunNow dispatches a job immediately, for manual triggers.
func (s *Service) RunNow(ctx context.Context, kind string) error {
	return s.dispatcher.Dispatch(ctx, kind)
}
