package warehouse

import (
	"context"
	"errors"
	"strings"

	"github.com/fulfillment/stock-engine/internal/domain/inventory"
	"github.com/fulfillment/stock-engine/internal/domain/shared"
	"github.com/fulfillment/stock-engine/internal/domain/warehouse"
	"github.com/google/uuid"
)

// Service handles warehouse operations
type Service struct {
	warehouseRepo warehouse.Repository
}

// NewService creates a new warehouse Service
func NewService(warehouseRepo warehouse.Repository) *Service {
	return &Service{warehouseRepo: warehouseRepo}
}

// Create registers a new warehouse
func (s *Service) Create(ctx context.Context, code, name, address string, primary bool) (*warehouse.Warehouse, error) {
	wh, err := warehouse.NewWarehouse(code, name)
	if err != nil {
		return nil, err
	}
	wh.Address = address
	if primary {
		wh.MarkPrimary()
	}
	if err := s.warehouseRepo.Save(ctx, wh); err != nil {
		return nil, err
	}
	return wh, nil
}

// GetByID retrieves a warehouse by ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*warehouse.Warehouse, error) {
	return s.warehouseRepo.FindByID(ctx, id)
}

// List retrieves warehouses matching the filter
func (s *Service) List(ctx context.Context, filter shared.Filter) ([]warehouse.Warehouse, error) {
	return s.warehouseRepo.FindAll(ctx, filter)
}

// Resolve maps a warehouse code to a warehouse. An empty code resolves
// to the primary warehouse, so order events without a warehouse hint
// are charged against the default location.
func (s *Service) Resolve(ctx context.Context, code string) (*warehouse.Warehouse, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		wh, err := s.warehouseRepo.FindPrimary(ctx)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, inventory.ErrWarehouseNotFound
			}
			return nil, err
		}
		return wh, nil
	}

	wh, err := s.warehouseRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, inventory.ErrWarehouseNotFound
		}
		return nil, err
	}
	return wh, nil
}
