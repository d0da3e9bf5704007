package warehouse

import (
	"context"

	"github.com/fulfillment/stock-engine/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines the interface for warehouse persistence
type Repository interface {
	// FindByID finds a warehouse by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Warehouse, error)

	// FindByCode finds a warehouse by its code
	FindByCode(ctx context.Context, code string) (*Warehouse, error)

	// FindPrimary finds the primary warehouse; returns shared.ErrNotFound
	// when no primary warehouse is configured
	FindPrimary(ctx context.Context) (*Warehouse, error)

	// FindAll finds warehouses matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Warehouse, error)

	// Save creates or updates a warehouse
	Save(ctx context.Context, wh *Warehouse) error
}
