package service

import (
	"context"

	"github.com/tutorkhata/khata_server/internal/model"
)

// SettingsProvider reads integer AppSettings; ok is false when the key is absent or unparsable.
type SettingsProvider interface {
	GetInt(ctx context.Context, key string) (int, bool, error)
}

// FeeDayCounter counts teachers per fee day.
type FeeDayCounter interface {
	CountByFeeDay(ctx context.Context) (map[int]int64, error)
}

// FeeDayAllocator spreads teachers over fee days 1..maxFeeDay so that no day holds
// more than teacher_capacity_per_day teachers.
type FeeDayAllocator struct {
	settings  SettingsProvider
	counter   FeeDayCounter
	maxFeeDay int
}

func NewFeeDayAllocator(settings SettingsProvider, counter FeeDayCounter, maxFeeDay int) *FeeDayAllocator {
	return &FeeDayAllocator{settings: settings, counter: counter, maxFeeDay: maxFeeDay}
}

// With returns an allocator reading through other collaborators, typically transaction-bound ones.
func (a *FeeDayAllocator) With(settings SettingsProvider, counter FeeDayCounter) *FeeDayAllocator {
	return &FeeDayAllocator{settings: settings, counter: counter, maxFeeDay: a.maxFeeDay}
}

func (a *FeeDayAllocator) MaxFeeDay() int {
	return a.maxFeeDay
}

// AvailableDays lists, ascending, the days still below capacity. Without a capacity
// (absent, zero or unparsable) every day is available.
func (a *FeeDayAllocator) AvailableDays(ctx context.Context) ([]int, error) {
	capacity, ok, err := a.settings.GetInt(ctx, model.SettingTeacherCapacityPerDay)
	if err != nil {
		return nil, err
	}

	days := make([]int, 0, a.maxFeeDay)
	if !ok || capacity == 0 {
		for day := 1; day <= a.maxFeeDay; day++ {
			days = append(days, day)
		}
		return days, nil
	}

	counts, err := a.counter.CountByFeeDay(ctx)
	if err != nil {
		return nil, err
	}
	for day := 1; day <= a.maxFeeDay; day++ {
		if counts[day] < int64(capacity) {
			days = append(days, day)
		}
	}
	return days, nil
}

// BestDay is the earliest available day.
func (a *FeeDayAllocator) BestDay(ctx context.Context) (int, error) {
	days, err := a.AvailableDays(ctx)
	if err != nil {
		return 0, err
	}
	if len(days) == 0 {
		return 0, ErrAllocationExhausted
	}
	return days[0], nil
}

func (a *FeeDayAllocator) IsDayAvailable(ctx context.Context, day int) (bool, error) {
	days, err := a.AvailableDays(ctx)
	if err != nil {
		return false, err
	}
	for _, d := range days {
		if d == day {
			return true, nil
		}
	}
	return false, nil
}
