package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tutorkhata/khata_server/internal/model"
	"github.com/tutorkhata/khata_server/internal/model/dto"
	"github.com/tutorkhata/khata_server/internal/repository"
)

const (
	defaultTeacherPageSize = 20
	maxTeacherPageSize     = 100
)

type TeacherService struct {
	tx           *repository.Transactor
	teacherRepo  *repository.TeacherRepository
	settingsRepo *repository.SettingsRepository
	allocator    *FeeDayAllocator
}

func NewTeacherService(
	tx *repository.Transactor,
	teacherRepo *repository.TeacherRepository,
	settingsRepo *repository.SettingsRepository,
	allocator *FeeDayAllocator,
) *TeacherService {
	return &TeacherService{
		tx:           tx,
		teacherRepo:  teacherRepo,
		settingsRepo: settingsRepo,
		allocator:    allocator,
	}
}

func (s *TeacherService) get(ctx context.Context, id int64) (*model.Teacher, error) {
	teacher, err := s.teacherRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeacherNotFound
		}
		return nil, err
	}
	return teacher, nil
}

func (s *TeacherService) GetProfile(ctx context.Context, teacherID int64) (*dto.TeacherInfo, error) {
	teacher, err := s.get(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	return dto.NewTeacherInfo(teacher), nil
}

// UpdateProfile changes name and fee day. A new fee day must have capacity left;
// keeping the current one is always allowed.
func (s *TeacherService) UpdateProfile(ctx context.Context, teacherID int64, req *dto.UpdateTeacherRequest) (*dto.TeacherInfo, error) {
	if req.FeeDay != nil && *req.FeeDay > s.allocator.MaxFeeDay() {
		return nil, NewValidationError("fee_day",
			fmt.Sprintf("Ensure this value is less than or equal to %d.", s.allocator.MaxFeeDay()))
	}

	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		settings := s.settingsRepo.WithTx(tx)
		teachers := s.teacherRepo.WithTx(tx)

		teacher, err := teachers.GetByID(ctx, teacherID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTeacherNotFound
			}
			return err
		}

		fields := map[string]interface{}{}
		if req.Name != nil {
			fields["name"] = *req.Name
		}
		if req.FeeDay != nil && *req.FeeDay != teacher.FeeDay {
			if err := settings.Lock(ctx, model.SettingTeacherCapacityPerDay); err != nil {
				return err
			}
			ok, err := s.allocator.With(settings, teachers).IsDayAvailable(ctx, *req.FeeDay)
			if err != nil {
				return err
			}
			if !ok {
				return NewValidationError("fee_day", "This fee day is not available")
			}
			fields["fee_day"] = *req.FeeDay
		}
		if len(fields) == 0 {
			return nil
		}
		return teachers.UpdateFields(ctx, teacherID, fields)
	})
	if err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, teacherID)
}

// AvailableFeeDays lists the fee days a new or moving teacher may take.
func (s *TeacherService) AvailableFeeDays(ctx context.Context) ([]int, error) {
	return s.allocator.AvailableDays(ctx)
}

// List pages the public teacher directory. Out of range page or pageSize values
// fall back to page 1 and the default page size.
func (s *TeacherService) List(ctx context.Context, search string, page, pageSize int) (*dto.TeacherPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxTeacherPageSize {
		pageSize = defaultTeacherPageSize
	}
	teachers, total, err := s.teacherRepo.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &dto.TeacherPage{
		Items:    dto.NewTeacherList(teachers),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (s *TeacherService) Get(ctx context.Context, id int64) (*dto.TeacherListItem, error) {
	teacher, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.TeacherListItem{ID: teacher.ID, Name: teacher.Name}, nil
}
