package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tutorkhata/khata_server/internal/model"
)

type TeacherRepository struct {
	db *gorm.DB
}

func NewTeacherRepository(db *gorm.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

func (r *TeacherRepository) WithTx(tx *gorm.DB) *TeacherRepository {
	return &TeacherRepository{db: tx}
}

func (r *TeacherRepository) Create(ctx context.Context, teacher *model.Teacher) error {
	return r.db.WithContext(ctx).Create(teacher).Error
}

func (r *TeacherRepository) GetByID(ctx context.Context, id int64) (*model.Teacher, error) {
	var teacher model.Teacher
	if err := r.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&teacher).Error; err != nil {
		return nil, err
	}
	return &teacher, nil
}

func (r *TeacherRepository) GetByUserID(ctx context.Context, userID int64) (*model.Teacher, error) {
	var teacher model.Teacher
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&teacher).Error; err != nil {
		return nil, err
	}
	return &teacher, nil
}

func (r *TeacherRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Teacher{}).Where("id = ?", id).Updates(fields).Error
}

// CountByFeeDay returns the number of teachers per fee day. Days without teachers are absent.
func (r *TeacherRepository) CountByFeeDay(ctx context.Context) (map[int]int64, error) {
	var rows []struct {
		FeeDay int
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&model.Teacher{}).
		Select("fee_day, COUNT(*) AS total").
		Group("fee_day").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[int]int64, len(rows))
	for _, row := range rows {
		counts[row.FeeDay] = row.Total
	}
	return counts, nil
}

// List pages teachers ordered by id, optionally filtered by a name substring.
func (r *TeacherRepository) List(ctx context.Context, search string, page, pageSize int) ([]model.Teacher, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Teacher{})
	if search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var teachers []model.Teacher
	err := query.Order("id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&teachers).Error
	return teachers, total, err
}
