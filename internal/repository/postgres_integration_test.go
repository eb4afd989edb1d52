//go:build integration

package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tutorkhata/khata_server/config"
	"github.com/tutorkhata/khata_server/internal/database"
	"github.com/tutorkhata/khata_server/internal/model"
	"github.com/tutorkhata/khata_server/internal/testutil"
)

// setupPostgres starts a throwaway Postgres and returns a migrated connection.
// Run with: go test -tags integration ./internal/repository/...
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("khata"),
		postgres.WithUsername("khata"),
		postgres.WithPassword("khata"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Warning: Failed to terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	log := zap.NewNop()
	db, err := database.NewDB(&config.DatabaseConfig{
		Driver:       database.DriverPostgres,
		DSN:          dsn,
		MaxOpenConns: 20,
	}, log)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db, log) })

	require.NoError(t, database.AutoMigrate(db, log))
	return db
}

func TestPostgres_IncrementRespectsLimitUnderContention(t *testing.T) {
	db := setupPostgres(t)

	teacher := testutil.TestTeacher(t, db)
	sms := testutil.TestFeature(t, db, "sms")
	repo := NewUsageRepository(db)
	ctx := context.Background()
	limit := testutil.IntPtr(10)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		recorded int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.Increment(ctx, teacher.ID, sms.ID, limit, time.Now().UTC())
			if err == nil && ok {
				mu.Lock()
				recorded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	used, err := repo.GetOrDefault(ctx, teacher.ID, sms.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, used)
	assert.Equal(t, 10, recorded)
}

func TestPostgres_DuplicateSubscriptionTranslated(t *testing.T) {
	db := setupPostgres(t)

	plan := testutil.TestPlan(t, db)
	price := testutil.TestPrice(t, db, plan.ID)
	teacher := testutil.TestTeacher(t, db)
	testutil.TestSubscription(t, db, teacher.ID, price)

	err := NewSubscriptionRepository(db).Create(context.Background(), &model.Subscription{
		TeacherID: teacher.ID,
		PlanID:    plan.ID,
		PriceID:   price.ID,
		Status:    model.StatusActive,
	})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestPostgres_SettingsLockSerializesWriters(t *testing.T) {
	db := setupPostgres(t)

	testutil.TestSetting(t, db, model.SettingTeacherCapacityPerDay, "1")
	settings := NewSettingsRepository(db)
	tx := NewTransactor(db)
	ctx := context.Background()

	locked := make(chan struct{})
	release := make(chan struct{})
	var order []string
	var mu sync.Mutex
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = tx.WithinTx(ctx, func(tx *gorm.DB) error {
			if err := settings.WithTx(tx).Lock(ctx, model.SettingTeacherCapacityPerDay); err != nil {
				return err
			}
			close(locked)
			<-release
			record("first")
			return nil
		})
	}()

	<-locked
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = tx.WithinTx(ctx, func(tx *gorm.DB) error {
			if err := settings.WithTx(tx).Lock(ctx, model.SettingTeacherCapacityPerDay); err != nil {
				return err
			}
			record("second")
			return nil
		})
	}()

	time.Sleep(200 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, []string{"first", "second"}, order)
}
