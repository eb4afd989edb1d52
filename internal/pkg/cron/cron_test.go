package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	robfig "github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tutorkhata/khata_server/internal/pkg/queue"
)

type recordingDispatcher struct {
	mu    sync.Mutex
	kinds []string
	err   error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, kind string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.kinds = append(d.kinds, kind)
	return d.err
}

func (d *recordingDispatcher) count(kind string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, k := range d.kinds {
		if k == kind {
			n++
		}
	}
	return n
}

func TestNextMonthStart(t *testing.T) {
	tests := []struct {
		in   time.Time
		want time.Time
	}{
		{time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC), time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 12, 31, 23, 59, 0, 0, time.UTC), time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NextMonthStart(tt.in))
	}
}

func TestMonthlyResetSchedule_MatchesNextMonthStart(t *testing.T) {
	schedule, err := robfig.ParseStandard(MonthlyResetSchedule)
	require.NoError(t, err)

	for _, in := range []time.Time{
		time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 12, 31, 23, 59, 0, 0, time.UTC),
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	} {
		assert.Equal(t, NextMonthStart(in), schedule.Next(in), in.String())
	}
}

func TestService_SweepTicks(t *testing.T) {
	d := &recordingDispatcher{}
	svc := NewService(d, time.Second, zap.NewNop())

	svc.Start()
	defer svc.Stop()

	assert.Eventually(t, func() bool {
		return d.count(queue.KindSweepLifecycle) >= 1
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, 0, d.count(queue.KindResetUsage))
}

func TestService_DispatchErrorDoesNotStopLoop(t *testing.T) {
	d := &recordingDispatcher{err: errors.New("redis down")}
	svc := NewService(d, time.Second, zap.NewNop())

	svc.Start()
	defer svc.Stop()

	assert.Eventually(t, func() bool {
		return d.count(queue.KindSweepLifecycle) >= 2
	}, 5*time.Second, 20*time.Millisecond)
}

func TestService_StopIsIdempotent(t *testing.T) {
	svc := NewService(&recordingDispatcher{}, time.Hour, zap.NewNop())
	svc.Start()
	svc.Stop()
	assert.NotPanics(t, svc.Stop)
}

func TestService_RunNow(t *testing.T) {
	d := &recordingDispatcher{}
	svc := NewService(d, time.Hour, zap.NewNop())

	require.NoError(t, svc.RunNow(context.Background(), queue.KindResetUsage))
	assert.Equal(t, 1, d.count(queue.KindResetUsage))
}

func TestNewService_DefaultInterval(t *testing.T) {
	svc := NewService(&recordingDispatcher{}, 0, zap.NewNop())
	assert.Equal(t, time.Hour, svc.sweepInterval)
}
