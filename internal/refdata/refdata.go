// Package refdata serves the read-only reference entities expenses point
// at: categories and cost centers.
package refdata

import (
	"context"
	"time"
)

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type CostCenter struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Repository interface {
	ListCategories(ctx context.Context) ([]*Category, error)
	ListCostCenters(ctx context.Context) ([]*CostCenter, error)
}
