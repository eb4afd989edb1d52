package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tutorkhata/khata_server/internal/model"
)

// SettingsRepository reads and writes AppSetting rows.
type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) WithTx(tx *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: tx}
}

// Get reports ok=false when the key is absent.
func (r *SettingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var setting model.AppSetting
	err := r.db.WithContext(ctx).Where(&model.AppSetting{Key: key}).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return setting.Value, true, nil
}

// GetInt treats an unparsable value like a missing one.
func (r *SettingsRepository) GetInt(ctx context.Context, key string) (int, bool, error) {
	value, ok, err := r.Get(ctx, key)
	if err != nil || !ok {
		return 0, false, err
	}
	return ParseInt(value)
}

// ParseInt parses a stored setting value.
func ParseInt(value string) (int, bool, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, false, nil
	}
	return n, true, nil
}

// Set upserts the key.
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&model.AppSetting{Key: key, Value: value}).Error
}

// Lock takes a row lock on key for the rest of the transaction. Missing keys lock nothing.
func (r *SettingsRepository) Lock(ctx context.Context, key string) error {
	var setting model.AppSetting
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(&model.AppSetting{Key: key}).
		Limit(1).
		Find(&setting).Error
	return err
}
