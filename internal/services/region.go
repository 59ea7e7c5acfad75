package services

import (
	"context"
	"fmt"

	"leaderboard-service/internal/models"
	"leaderboard-service/internal/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type RegionService struct {
	regionRepo *repository.RegionRepository
}

func NewRegionService(regionRepo *repository.RegionRepository) *RegionService {
	return &RegionService{
		regionRepo: regionRepo,
	}
}

func (s *RegionService) CreateRegion(ctx context.Context, req *models.CreateRegionRequest) (*models.Region, error) {
	if req.Name == "" || req.Code == "" {
		return nil, fmt.Errorf("validation failed: name and code are required")
	}

	if _, err := s.regionRepo.FindByCode(ctx, req.Code); err == nil {
		return nil, fmt.Errorf("region code already exists")
	} else if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to check existing region: %w", err)
	}

	region := &models.Region{
		Name:     req.Name,
		Code:     req.Code,
		IsActive: true,
	}

	return s.regionRepo.New(ctx, region)
}

func (s *RegionService) GetRegion(ctx context.Context, regionID string) (*models.Region, error) {
	id, err := bson.ObjectIDFromHex(regionID)
	if err != nil {
		return nil, fmt.Errorf("invalid region ID format: %w", err)
	}

	region, err := s.regionRepo.FindByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("region not found")
		}
		return nil, fmt.Errorf("failed to get region: %w", err)
	}
	return region, nil
}

func (s *RegionService) ListRegions(ctx context.Context, activeOnly bool) ([]*models.Region, error) {
	return s.regionRepo.FindAll(ctx, activeOnly)
}

// DeactivateRegion takes a region out of rotation. Regions referenced by
// users are never deleted.
func (s *RegionService) DeactivateRegion(ctx context.Context, regionID string) error {
	id, err := bson.ObjectIDFromHex(regionID)
	if err != nil {
		return fmt.Errorf("invalid region ID format: %w", err)
	}

	if err := s.regionRepo.UpdateStatus(ctx, id, false); err != nil {
		if err == mongo.ErrNoDocuments {
			return fmt.Errorf("region not found")
		}
		return err
	}
	return nil
}
