package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/expense-portal/internal"
	"github.com/frahmantamala/expense-portal/internal/refdata"
)

type categoryModel struct {
	ID        string    `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
}

func (categoryModel) TableName() string {
	return "categories"
}

type costCenterModel struct {
	ID        string    `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
}

func (costCenterModel) TableName() string {
	return "cost_centers"
}

type RefDataRepository struct {
	db *gorm.DB
}

func NewRefDataRepository(db *gorm.DB) refdata.Repository {
	return &RefDataRepository{db: db}
}

func (r *RefDataRepository) ListCategories(ctx context.Context) ([]*refdata.Category, error) {
	var models []categoryModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&models).Error; err != nil {
		return nil, internal.NewBackendError(internal.BackendCodeQueryFailed, "category listing failed", err)
	}

	categories := make([]*refdata.Category, len(models))
	for i, m := range models {
		categories[i] = &refdata.Category{ID: m.ID, Name: m.Name, CreatedAt: m.CreatedAt}
	}
	return categories, nil
}

func (r *RefDataRepository) ListCostCenters(ctx context.Context) ([]*refdata.CostCenter, error) {
	var models []costCenterModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&models).Error; err != nil {
		return nil, internal.NewBackendError(internal.BackendCodeQueryFailed, "cost center listing failed", err)
	}

	costCenters := make([]*refdata.CostCenter, len(models))
	for i, m := range models {
		costCenters[i] = &refdata.CostCenter{ID: m.ID, Name: m.Name, CreatedAt: m.CreatedAt}
	}
	return costCenters, nil
}
