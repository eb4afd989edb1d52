package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tutorkhata/khata_server/internal/testutil"
)

func TestPlanRepository_ListLoadsCatalog(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	basic := testutil.TestPlan(t, db, testutil.WithPlanCode("basic"))
	pro := testutil.TestPlan(t, db, testutil.WithPlanCode("pro"), testutil.WithTrialMonths(1))
	sms := testutil.TestFeature(t, db, "sms")
	students := testutil.TestFeature(t, db, "students")

	testutil.TestPrice(t, db, basic.ID)
	testutil.TestPrice(t, db, pro.ID)
	testutil.TestPrice(t, db, pro.ID, testutil.WithDurationMonths(12))
	testutil.TestPlanFeature(t, db, basic.ID, sms.ID, testutil.IntPtr(100))
	testutil.TestPlanFeature(t, db, pro.ID, sms.ID, nil)
	testutil.TestPlanFeature(t, db, pro.ID, students.ID, nil)

	plans, err := NewPlanRepository(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 2)

	assert.Equal(t, "basic", plans[0].Code)
	assert.Len(t, plans[0].Prices, 1)
	require.Len(t, plans[0].Features, 1)
	assert.Equal(t, "sms", plans[0].Features[0].Feature.Code)
	assert.Equal(t, 100, *plans[0].Features[0].MonthlyLimit)

	assert.Equal(t, "pro", plans[1].Code)
	assert.Len(t, plans[1].Prices, 2)
	assert.Len(t, plans[1].Features, 2)
	assert.Nil(t, plans[1].Features[0].MonthlyLimit)
}

func TestPlanRepository_Lookups(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	plan := testutil.TestPlan(t, db)
	price := testutil.TestPrice(t, db, plan.ID, testutil.WithInactive())
	feature := testutil.TestFeature(t, db, "sms")
	testutil.TestPlanFeature(t, db, plan.ID, feature.ID, testutil.IntPtr(5))

	repo := NewPlanRepository(db)
	ctx := context.Background()

	got, err := repo.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.Code, got.Code)

	_, err = repo.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	p, err := repo.GetPrice(ctx, price.ID)
	require.NoError(t, err)
	assert.False(t, p.IsActive)

	f, err := repo.GetFeatureByCode(ctx, "sms")
	require.NoError(t, err)
	assert.Equal(t, feature.ID, f.ID)

	_, err = repo.GetFeatureByCode(ctx, "nope")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	pf, err := repo.GetPlanFeature(ctx, plan.ID, feature.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, *pf.MonthlyLimit)

	_, err = repo.GetPlanFeature(ctx, plan.ID, 9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	features, err := repo.ListFeatures(ctx)
	require.NoError(t, err)
	assert.Len(t, features, 1)
}

func TestPlanFeature_UniquePerPlan(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	plan := testutil.TestPlan(t, db)
	feature := testutil.TestFeature(t, db, "sms")
	testutil.TestPlanFeature(t, db, plan.ID, feature.ID, nil)

	err := db.Exec("INSERT INTO plan_features (plan_id, feature_id) VALUES (?, ?)", plan.ID, feature.ID).Error
	assert.Error(t, err)
}
