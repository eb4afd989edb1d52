package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tutorkhata/khata_server/internal/model"
	"github.com/tutorkhata/khata_server/internal/testutil"
)

func setupPlanWithPrice(t *testing.T, db *gorm.DB) (*model.Plan, *model.Price) {
	t.Helper()
	plan := testutil.TestPlan(t, db)
	price := testutil.TestPrice(t, db, plan.ID)
	return plan, price
}

func TestSubscriptionRepository_GetByTeacherID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	plan, price := setupPlanWithPrice(t, db)
	feature := testutil.TestFeature(t, db, "sms")
	testutil.TestPlanFeature(t, db, plan.ID, feature.ID, testutil.IntPtr(10))
	teacher := testutil.TestTeacher(t, db)
	testutil.TestSubscription(t, db, teacher.ID, price)

	repo := NewSubscriptionRepository(db)
	ctx := context.Background()

	sub, err := repo.GetByTeacherID(ctx, teacher.ID)
	require.NoError(t, err)
	require.NotNil(t, sub.Plan)
	require.NotNil(t, sub.Price)
	assert.Equal(t, plan.Code, sub.Plan.Code)
	assert.Equal(t, price.ID, sub.Price.ID)
	require.Len(t, sub.Plan.Features, 1)
	assert.Equal(t, "sms", sub.Plan.Features[0].Feature.Code)

	planID, err := repo.GetPlanID(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, planID)

	exists, err := repo.ExistsForTeacher(ctx, teacher.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.GetByTeacherID(ctx, teacher.ID+100)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSubscriptionRepository_OnePerTeacher(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	_, price := setupPlanWithPrice(t, db)
	teacher := testutil.TestTeacher(t, db)
	testutil.TestSubscription(t, db, teacher.ID, price)

	err := NewSubscriptionRepository(db).Create(context.Background(), &model.Subscription{
		TeacherID: teacher.ID,
		PlanID:    price.PlanID,
		PriceID:   price.ID,
		Status:    model.StatusActive,
	})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestSubscriptionRepository_Transition(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	_, price := setupPlanWithPrice(t, db)
	teacher := testutil.TestTeacher(t, db)
	sub := testutil.TestSubscription(t, db, teacher.ID, price, testutil.WithStatus(model.StatusTrial))

	repo := NewSubscriptionRepository(db)
	ctx := context.Background()

	ok, err := repo.Transition(ctx, sub.ID, model.StatusActive, map[string]interface{}{"status": model.StatusExpired})
	require.NoError(t, err)
	assert.False(t, ok, "row is not active, nothing should change")

	ok, err = repo.Transition(ctx, sub.ID, model.StatusTrial, map[string]interface{}{"status": model.StatusActive})
	require.NoError(t, err)
	assert.True(t, ok)

	found, err := repo.GetByTeacherID(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, found.Status)
}

func TestSubscriptionRepository_UpdateFieldsKeepsFalse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	_, price := setupPlanWithPrice(t, db)
	teacher := testutil.TestTeacher(t, db)
	sub := testutil.TestSubscription(t, db, teacher.ID, price)

	repo := NewSubscriptionRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.UpdateFields(ctx, sub.ID, map[string]interface{}{"auto_renew": false}))

	found, err := repo.GetByTeacherID(ctx, teacher.ID)
	require.NoError(t, err)
	assert.False(t, found.AutoRenew)
}

func TestSubscriptionRepository_ListDue(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	_, price := setupPlanWithPrice(t, db)
	now := time.Now().UTC()
	past := now.Add(-2 * time.Hour)
	future := now.Add(48 * time.Hour)

	trialDone := testutil.TestSubscription(t, db, testutil.TestTeacher(t, db).ID, price,
		testutil.WithStatus(model.StatusTrial), testutil.WithTrialEndsAt(past), testutil.WithEndsAt(future))
	testutil.TestSubscription(t, db, testutil.TestTeacher(t, db).ID, price,
		testutil.WithStatus(model.StatusTrial), testutil.WithTrialEndsAt(future), testutil.WithEndsAt(future))
	activeDone := testutil.TestSubscription(t, db, testutil.TestTeacher(t, db).ID, price,
		testutil.WithEndsAt(past))
	testutil.TestSubscription(t, db, testutil.TestTeacher(t, db).ID, price,
		testutil.WithStatus(model.StatusExpired), testutil.WithEndsAt(past))

	repo := NewSubscriptionRepository(db)
	ctx := context.Background()

	trials, err := repo.ListTrialsEnded(ctx, now)
	require.NoError(t, err)
	require.Len(t, trials, 1)
	assert.Equal(t, trialDone.ID, trials[0].ID)

	ended, err := repo.ListEnded(ctx, now)
	require.NoError(t, err)
	require.Len(t, ended, 1)
	assert.Equal(t, activeDone.ID, ended[0].ID)
}
