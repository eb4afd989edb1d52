package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tutorkhata/khata_server/internal/model"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) WithTx(tx *gorm.DB) *EventRepository {
	return &EventRepository{db: tx}
}

func (r *EventRepository) Create(ctx context.Context, event *model.SubscriptionEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// ListByTeacher returns the newest events first.
func (r *EventRepository) ListByTeacher(ctx context.Context, teacherID int64, limit int) ([]model.SubscriptionEvent, error) {
	var events []model.SubscriptionEvent
	err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("id DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}
