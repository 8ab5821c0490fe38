package refdata

import (
	"context"
	"log/slog"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// ListCategories returns all categories ordered by name. Failures are
// logged and swallowed: reference data degrades to an empty list rather
// than blocking the caller.
func (s *Service) ListCategories(ctx context.Context) []*Category {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		s.logger.Error("failed to list categories", "error", err)
		return []*Category{}
	}
	if categories == nil {
		categories = []*Category{}
	}
	return categories
}

// ListCostCenters mirrors ListCategories for cost centers.
func (s *Service) ListCostCenters(ctx context.Context) []*CostCenter {
	costCenters, err := s.repo.ListCostCenters(ctx)
	if err != nil {
		s.logger.Error("failed to list cost centers", "error", err)
		return []*CostCenter{}
	}
	if costCenters == nil {
		costCenters = []*CostCenter{}
	}
	return costCenters
}
