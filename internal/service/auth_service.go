package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tutorkhata/khata_server/config"
	"github.com/tutorkhata/khata_server/internal/model"
	"github.com/tutorkhata/khata_server/internal/model/dto"
	"github.com/tutorkhata/khata_server/internal/pkg/jwt"
	"github.com/tutorkhata/khata_server/internal/repository"
)

type AuthService struct {
	tx           *repository.Transactor
	userRepo     *repository.UserRepository
	teacherRepo  *repository.TeacherRepository
	settingsRepo *repository.SettingsRepository
	allocator    *FeeDayAllocator
	jwtCfg       config.JWTConfig
}

func NewAuthService(
	tx *repository.Transactor,
	userRepo *repository.UserRepository,
	teacherRepo *repository.TeacherRepository,
	settingsRepo *repository.SettingsRepository,
	allocator *FeeDayAllocator,
	jwtCfg config.JWTConfig,
) *AuthService {
	return &AuthService{
		tx:           tx,
		userRepo:     userRepo,
		teacherRepo:  teacherRepo,
		settingsRepo: settingsRepo,
		allocator:    allocator,
		jwtCfg:       jwtCfg,
	}
}

// Register creates the user and its teacher together. The teacher gets the earliest
// fee day with capacity and the configured monthly free SMS tokens.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	exists, err := s.userRepo.ExistsByPhone(ctx, req.PhoneNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrPhoneExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: string(hashed),
		IsActive:     true,
	}
	teacher := &model.Teacher{Name: req.Name}

	err = s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		settings := s.settingsRepo.WithTx(tx)
		teachers := s.teacherRepo.WithTx(tx)

		// serializes allocations against other signups and fee-day changes
		if err := settings.Lock(ctx, model.SettingTeacherCapacityPerDay); err != nil {
			return err
		}
		day, err := s.allocator.With(settings, teachers).BestDay(ctx)
		if err != nil {
			return err
		}

		if err := s.userRepo.WithTx(tx).Create(ctx, user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrPhoneExists
			}
			return err
		}

		freeTokens, _, err := settings.GetInt(ctx, model.SettingMonthlyFreeSMSTokensCount)
		if err != nil {
			return err
		}
		teacher.UserID = user.ID
		teacher.FeeDay = day
		teacher.FreeSMSTokensCount = freeTokens
		return teachers.Create(ctx, teacher)
	})
	if err != nil {
		return nil, err
	}

	teacher.User = user
	return s.issue(teacher)
}

// Login checks the phone number and password and issues a token.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetByPhone(ctx, req.PhoneNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	teacher, err := s.teacherRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeacherNotFound
		}
		return nil, err
	}
	teacher.User = user
	return s.issue(teacher)
}

func (s *AuthService) issue(teacher *model.Teacher) (*dto.AuthResponse, error) {
	token, err := jwt.GenerateToken(teacher.UserID, s.jwtCfg.Secret, s.jwtCfg.ExpireHours)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		Token:   token,
		Teacher: dto.NewTeacherInfo(teacher),
	}, nil
}
