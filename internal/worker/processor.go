package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tutorkhata/khata_server/internal/pkg/queue"
	"github.com/tutorkhata/khata_server/internal/service"
)

type LifecycleSweeper interface {
	SweepLifecycle(ctx context.Context) (*service.SweepResult, error)
}

type UsageResetter interface {
	ResetAllUsage(ctx context.Context) (int64, error)
}

// Processor runs lifecycle jobs taken off the queue.
type Processor struct {
	sweeper LifecycleSweeper
	usage   UsageResetter
	log     *zap.Logger
}

func NewProcessor(sweeper LifecycleSweeper, usage UsageResetter, log *zap.Logger) *Processor {
	return &Processor{
		sweeper: sweeper,
		usage:   usage,
		log:     log,
	}
}

// Process executes one job. Unknown kinds are an error so they show up in the logs.
func (p *Processor) Process(ctx context.Context, msg *queue.JobMessage) error {
	start := time.Now()
	log := p.log.With(zap.String("kind", msg.Kind), zap.String("requested_by", msg.RequestedBy))

	switch msg.Kind {
	case queue.KindSweepLifecycle:
		result, err := p.sweeper.SweepLifecycle(ctx)
		if err != nil {
			return fmt.Errorf("lifecycle sweep: %w", err)
		}
		log.Info("lifecycle sweep done",
			zap.Int("trials_ended", result.TrialsEnded),
			zap.Int("expired", result.Expired),
			zap.Duration("took", time.Since(start)))

	case queue.KindResetUsage:
		rows, err := p.usage.ResetAllUsage(ctx)
		if err != nil {
			return fmt.Errorf("usage reset: %w", err)
		}
		log.Info("usage reset done", zap.Int64("rows", rows), zap.Duration("took", time.Since(start)))

	default:
		return fmt.Errorf("unknown job kind %q", msg.Kind)
	}
	return nil
}
