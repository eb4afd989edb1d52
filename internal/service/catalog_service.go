package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tutorkhata/khata_server/internal/model/dto"
	"github.com/tutorkhata/khata_server/internal/repository"
)

// CatalogService serves the read-only plan catalog.
type CatalogService struct {
	planRepo *repository.PlanRepository
}

func NewCatalogService(planRepo *repository.PlanRepository) *CatalogService {
	return &CatalogService{planRepo: planRepo}
}

func (s *CatalogService) ListPlans(ctx context.Context) ([]dto.PlanResponse, error) {
	plans, err := s.planRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewPlanList(plans), nil
}

func (s *CatalogService) GetPlan(ctx context.Context, id int64) (*dto.PlanResponse, error) {
	plan, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return dto.NewPlanResponse(plan), nil
}

func (s *CatalogService) ListFeatures(ctx context.Context) ([]dto.FeatureResponse, error) {
	features, err := s.planRepo.ListFeatures(ctx)
	if err != nil {
		return nil, err
	}
	list := make([]dto.FeatureResponse, 0, len(features))
	for i := range features {
		list = append(list, *dto.NewFeatureResponse(&features[i]))
	}
	return list, nil
}
