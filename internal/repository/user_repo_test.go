package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tutorkhata/khata_server/internal/model"
	"github.com/tutorkhata/khata_server/internal/testutil"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &model.User{PhoneNumber: "01711111111", PasswordHash: "hash", IsActive: true}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotZero(t, user.ID)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "01711111111", byID.PhoneNumber)

	byPhone, err := repo.GetByPhone(ctx, "01711111111")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byPhone.ID)

	exists, err := repo.ExistsByPhone(ctx, "01711111111")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByPhone(ctx, "01899999999")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUserRepository_DuplicatePhone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUserRepository(db)
	ctx := context.Background()

	testutil.TestUser(t, db, testutil.WithPhone("01722222222"))
	err := repo.Create(ctx, &model.User{PhoneNumber: "01722222222", PasswordHash: "x"})
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))
}

func TestUserRepository_GetByPhone_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	_, err := NewUserRepository(db).GetByPhone(context.Background(), "nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
