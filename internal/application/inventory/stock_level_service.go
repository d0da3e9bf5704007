package inventory

import (
	"context"
	"errors"

	"github.com/fulfillment/stock-engine/internal/domain/inventory"
	"github.com/fulfillment/stock-engine/internal/domain/shared"
	"github.com/google/uuid"
)

// StockLevelService exposes the derived stock view and repairs it from
// lot truth when it drifts
type StockLevelService struct {
	scope      TransactionScope
	maxRetries int
}

// NewStockLevelService creates a new StockLevelService
func NewStockLevelService(scope TransactionScope) *StockLevelService {
	return &StockLevelService{scope: scope, maxRetries: DefaultMaxRetries}
}

// SetMaxRetries overrides the optimistic retry budget
func (s *StockLevelService) SetMaxRetries(n int) {
	if n > 0 {
		s.maxRetries = n
	}
}

// Get retrieves the stock level for a product in a warehouse
func (s *StockLevelService) Get(ctx context.Context, productID, warehouseID uuid.UUID) (*StockLevelResponse, error) {
	var response StockLevelResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		level, err := repos.StockLevelRepo().FindByProductAndWarehouse(ctx, productID, warehouseID)
		if err != nil {
			return err
		}
		response = ToStockLevelResponse(level)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// List retrieves stock levels matching the filter
func (s *StockLevelService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[StockLevelResponse], error) {
	var result shared.Paginated[StockLevelResponse]
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		levels, err := repos.StockLevelRepo().FindAll(ctx, filter)
		if err != nil {
			return err
		}
		total, err := repos.StockLevelRepo().Count(ctx, filter)
		if err != nil {
			return err
		}
		responses := make([]StockLevelResponse, 0, len(levels))
		for i := range levels {
			responses = append(responses, ToStockLevelResponse(&levels[i]))
		}
		result = shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Reconcile rebuilds the stock level for one product and warehouse from
// its lots, discarding any drift the incremental path accumulated
func (s *StockLevelService) Reconcile(ctx context.Context, productID, warehouseID uuid.UUID) (*StockLevelResponse, error) {
	var response StockLevelResponse
	err := executeWithRetry(ctx, s.scope, s.maxRetries, func(repos TransactionalRepositories) error {
		active := true
		lots, err := repos.LotRepo().FindAll(ctx, inventory.LotFilter{
			ProductID:   &productID,
			WarehouseID: &warehouseID,
			Active:      &active,
		})
		if err != nil {
			return err
		}

		level, err := repos.StockLevelRepo().GetOrCreate(ctx, productID, warehouseID)
		if err != nil {
			return err
		}
		level.ReconcileFromLots(lots)
		if err := repos.StockLevelRepo().SaveWithLock(ctx, level); err != nil {
			return err
		}
		response = ToStockLevelResponse(level)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// ReconcileAll repairs every stock level, returning how many were
// processed. Per-level conflicts are retried independently; other
// errors abort the sweep.
func (s *StockLevelService) ReconcileAll(ctx context.Context) (int, error) {
	var keys []struct{ productID, warehouseID uuid.UUID }
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		levels, err := repos.StockLevelRepo().FindAll(ctx, shared.Filter{})
		if err != nil {
			return err
		}
		for i := range levels {
			keys = append(keys, struct{ productID, warehouseID uuid.UUID }{levels[i].ProductID, levels[i].WarehouseID})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, key := range keys {
		if _, err := s.Reconcile(ctx, key.productID, key.warehouseID); err != nil {
			if errors.Is(err, inventory.ErrStoreContentionExceeded) {
				continue
			}
			return processed, err
		}
		processed++
	}
	return processed, nil
}
