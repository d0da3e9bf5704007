package inventory

import (
	"context"
	"errors"

	"github.com/fulfillment/stock-engine/internal/domain/catalog"
	"github.com/fulfillment/stock-engine/internal/domain/inventory"
	"github.com/fulfillment/stock-engine/internal/domain/shared"
	"github.com/fulfillment/stock-engine/internal/domain/warehouse"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductResolver resolves or implicitly registers products by SKU
type ProductResolver interface {
	ResolveOrCreateProduct(ctx context.Context, sku, name string) (*catalog.Product, error)
}

// WarehouseResolver maps warehouse codes to warehouses, defaulting to
// the primary warehouse for an empty code
type WarehouseResolver interface {
	Resolve(ctx context.Context, code string) (*warehouse.Warehouse, error)
}

// LotService handles stock receipts and lot lifecycle operations
type LotService struct {
	scope          TransactionScope
	products       ProductResolver
	warehouses     WarehouseResolver
	eventPublisher shared.EventPublisher
	validate       *validator.Validate
	maxRetries     int
}

// NewLotService creates a new LotService
func NewLotService(scope TransactionScope, products ProductResolver, warehouses WarehouseResolver) *LotService {
	return &LotService{
		scope:      scope,
		products:   products,
		warehouses: warehouses,
		validate:   validator.New(),
		maxRetries: DefaultMaxRetries,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *LotService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMaxRetries overrides the optimistic retry budget
func (s *LotService) SetMaxRetries(n int) {
	if n > 0 {
		s.maxRetries = n
	}
}

// ReceiveStock registers a stock receipt: it creates the lot, appends
// the IN movement and folds the receipt into the derived stock level,
// all in one transaction. The product is registered implicitly when the
// SKU is new.
func (s *LotService) ReceiveStock(ctx context.Context, req ReceiveStockRequest) (*LotResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", err.Error())
	}
	if !req.Quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Receipt quantity must be positive")
	}

	product, err := s.products.ResolveOrCreateProduct(ctx, req.SKU, req.ProductName)
	if err != nil {
		return nil, err
	}
	wh, err := s.warehouses.Resolve(ctx, req.WarehouseCode)
	if err != nil {
		return nil, err
	}

	var lot *inventory.Lot
	err = executeWithRetry(ctx, s.scope, s.maxRetries, func(repos TransactionalRepositories) error {
		taken, err := repos.LotRepo().ExistsByNumber(ctx, req.LotNumber)
		if err != nil {
			return err
		}
		if taken {
			return inventory.ErrLotNumberConflict
		}

		lot, err = inventory.NewLot(req.LotNumber, product.ID, wh.ID, req.Quantity, req.UnitCost, req.ProductionDate, req.ExpiryDate)
		if err != nil {
			return err
		}
		lot.SupplierRef = req.SupplierRef
		lot.Notes = req.Notes
		if err := repos.LotRepo().Save(ctx, lot); err != nil {
			return err
		}

		movement, err := inventory.NewStockMovement(inventory.MovementIn, product.ID, wh.ID, &lot.ID, req.Quantity, req.UnitCost, decimal.Zero, req.Actor)
		if err != nil {
			return err
		}
		movement.WithReference(req.SupplierRef).WithReason("stock receipt")
		if err := repos.MovementRepo().Create(ctx, movement); err != nil {
			return err
		}

		level, err := repos.StockLevelRepo().GetOrCreate(ctx, product.ID, wh.ID)
		if err != nil {
			return err
		}
		if err := level.ApplyMovement(movement); err != nil {
			return err
		}
		return repos.StockLevelRepo().SaveWithLock(ctx, level)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, inventory.NewStockReceivedEvent(lot))

	response := ToLotResponse(lot)
	return &response, nil
}

// AdjustStock applies a manual signed correction to a lot and records
// the ADJUSTMENT ledger entry
func (s *LotService) AdjustStock(ctx context.Context, req AdjustStockRequest) (*MovementResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", err.Error())
	}
	if req.Delta.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Adjustment delta cannot be zero")
	}

	var movement *inventory.StockMovement
	err := executeWithRetry(ctx, s.scope, s.maxRetries, func(repos TransactionalRepositories) error {
		lot, err := repos.LotRepo().FindByNumber(ctx, req.LotNumber)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return inventory.ErrLotNotFound
			}
			return err
		}

		movement, err = inventory.NewStockMovement(inventory.MovementAdjustment, lot.ProductID, lot.WarehouseID, &lot.ID, req.Delta, lot.UnitCost, lot.CurrentQuantity, req.Actor)
		if err != nil {
			return err
		}
		movement.WithReason(req.Reason)

		if req.Delta.IsPositive() {
			err = lot.AddBack(req.Delta)
		} else {
			err = lot.Deduct(req.Delta.Abs())
		}
		if err != nil {
			return err
		}
		if err := repos.LotRepo().SaveWithLock(ctx, lot); err != nil {
			return err
		}
		if err := repos.MovementRepo().Create(ctx, movement); err != nil {
			return err
		}

		level, err := repos.StockLevelRepo().GetOrCreate(ctx, lot.ProductID, lot.WarehouseID)
		if err != nil {
			return err
		}
		if err := level.ApplyMovement(movement); err != nil {
			return err
		}
		return repos.StockLevelRepo().SaveWithLock(ctx, level)
	})
	if err != nil {
		return nil, err
	}

	response := ToMovementResponse(movement)
	return &response, nil
}

// UpdateLot edits the expiry date, unit cost or notes of a lot. A cost
// edit recomputes the lot's total cost from its current quantity.
func (s *LotService) UpdateLot(ctx context.Context, req UpdateLotRequest) (*LotResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", err.Error())
	}

	var lot *inventory.Lot
	err := executeWithRetry(ctx, s.scope, s.maxRetries, func(repos TransactionalRepositories) error {
		var err error
		lot, err = repos.LotRepo().FindByNumber(ctx, req.LotNumber)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return inventory.ErrLotNotFound
			}
			return err
		}
		if err := lot.UpdateDetails(req.ExpiryDate, req.UnitCost, req.Notes); err != nil {
			return err
		}
		return repos.LotRepo().SaveWithLock(ctx, lot)
	})
	if err != nil {
		return nil, err
	}
	response := ToLotResponse(lot)
	return &response, nil
}

// SetQualityStatus changes the quality state of a lot, taking it out of
// or back into FEFO allocation
func (s *LotService) SetQualityStatus(ctx context.Context, lotNumber string, status inventory.QualityStatus) (*LotResponse, error) {
	var lot *inventory.Lot
	err := executeWithRetry(ctx, s.scope, s.maxRetries, func(repos TransactionalRepositories) error {
		var err error
		lot, err = repos.LotRepo().FindByNumber(ctx, lotNumber)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return inventory.ErrLotNotFound
			}
			return err
		}
		if err := lot.SetQualityStatus(status); err != nil {
			return err
		}
		return repos.LotRepo().SaveWithLock(ctx, lot)
	})
	if err != nil {
		return nil, err
	}
	response := ToLotResponse(lot)
	return &response, nil
}

// DeactivateLot retires an empty lot
func (s *LotService) DeactivateLot(ctx context.Context, lotNumber string) error {
	return executeWithRetry(ctx, s.scope, s.maxRetries, func(repos TransactionalRepositories) error {
		lot, err := repos.LotRepo().FindByNumber(ctx, lotNumber)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return inventory.ErrLotNotFound
			}
			return err
		}
		if err := lot.Deactivate(); err != nil {
			return err
		}
		return repos.LotRepo().SaveWithLock(ctx, lot)
	})
}

// GetByNumber retrieves a lot by its lot number
func (s *LotService) GetByNumber(ctx context.Context, lotNumber string) (*LotResponse, error) {
	var response LotResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		lot, err := repos.LotRepo().FindByNumber(ctx, lotNumber)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return inventory.ErrLotNotFound
			}
			return err
		}
		response = ToLotResponse(lot)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// List retrieves lots matching the filter
func (s *LotService) List(ctx context.Context, filter inventory.LotFilter) (*shared.Paginated[LotResponse], error) {
	var result shared.Paginated[LotResponse]
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		lots, err := repos.LotRepo().FindAll(ctx, filter)
		if err != nil {
			return err
		}
		total, err := repos.LotRepo().Count(ctx, filter)
		if err != nil {
			return err
		}
		responses := make([]LotResponse, 0, len(lots))
		for i := range lots {
			responses = append(responses, ToLotResponse(&lots[i]))
		}
		result = shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// PreviewAllocation plans a FEFO allocation without touching any lot,
// answering "which lots would this quantity come from"
func (s *LotService) PreviewAllocation(ctx context.Context, productID, warehouseID uuid.UUID, quantity decimal.Decimal) (*inventory.AllocationPlan, error) {
	var plan *inventory.AllocationPlan
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		lots, err := repos.LotRepo().FindAllocatable(ctx, productID, warehouseID)
		if err != nil {
			return err
		}
		plan = inventory.PlanFEFO(quantity, lots)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *LotService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	// Errors are logged by the event bus, not propagated
	_ = s.eventPublisher.Publish(ctx, events...)
}
