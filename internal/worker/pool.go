package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tutorkhata/khata_server/internal/pkg/queue"
)

const popTimeout = 5 * time.Second

// JobSource is the queue side the pool consumes.
type JobSource interface {
	Pop(ctx context.Context, timeout time.Duration) (*queue.JobMessage, error)
}

type JobProcessor interface {
	Process(ctx context.Context, msg *queue.JobMessage) error
}

// Run starts n workers popping from src until ctx is cancelled, then waits for them.
func Run(ctx context.Context, src JobSource, processor JobProcessor, n int, log *zap.Logger) {
	if n < 1 {
		n = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			loop(ctx, workerID, src, processor, log.With(zap.Int("worker", workerID)))
		}(i)
	}
	log.Info("workers started", zap.Int("count", n))

	wg.Wait()
	log.Info("workers stopped")
}

func loop(ctx context.Context, workerID int, src JobSource, processor JobProcessor, log *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg, err := src.Pop(ctx, popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("failed to pop job", zap.Error(err))
			// avoid spinning while redis is down
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if msg == nil {
			continue
		}

		if err := processor.Process(ctx, msg); err != nil {
			log.Error("job failed", zap.String("kind", msg.Kind), zap.Error(err))
		}
	}
}
