package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fulfillment/stock-engine/internal/domain/catalog"
	"github.com/fulfillment/stock-engine/internal/domain/inventory"
	"github.com/fulfillment/stock-engine/internal/domain/shared"
	"github.com/fulfillment/stock-engine/internal/domain/warehouse"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderDeductionGuard tracks which orders have already had stock
// deducted, making deduction idempotent across repeated status events
type OrderDeductionGuard interface {
	// IsDeducted reports whether stock was already deducted for the order
	IsDeducted(ctx context.Context, orderID string) (bool, error)
	// MarkDeducted records that stock was deducted for the order
	MarkDeducted(ctx context.Context, orderID string) error
	// ClearDeducted removes the deduction mark after stock is added back
	ClearDeducted(ctx context.Context, orderID string) error
}

// DetermineAction maps an order status and its carrier status to the
// stock action to take. Carrier signals refine the order status: a
// delivered tracking state confirms the sale, a cancelled one triggers
// the add-back even if the order status lags behind.
func DetermineAction(status, carrierStatus string) DeductionAction {
	status = strings.ToUpper(strings.TrimSpace(status))
	carrierStatus = strings.ToLower(strings.TrimSpace(carrierStatus))

	if status == OrderStatusCancelled || status == OrderStatusReturned || carrierStatus == CarrierStatusCancelled {
		return ActionAddBack
	}
	if status == OrderStatusDelivered && carrierStatus == CarrierStatusDelivered {
		return ActionDeductSold
	}
	if status == OrderStatusShipped {
		return ActionDeductShipped
	}
	return ActionNone
}

// DeductionService is the orchestrator between order lifecycle events
// and the stock ledger. Each line item is processed sequentially in its
// own transaction; a failing item is recorded and never blocks the
// remaining items of the order.
type DeductionService struct {
	scope          TransactionScope
	products       ProductResolver
	warehouses     WarehouseResolver
	alerts         *AlertService
	guard          OrderDeductionGuard
	eventPublisher shared.EventPublisher
	validate       *validator.Validate
	maxRetries     int
	defaultActor   string
}

// NewDeductionService creates a new DeductionService
func NewDeductionService(
	scope TransactionScope,
	products ProductResolver,
	warehouses WarehouseResolver,
	alerts *AlertService,
	guard OrderDeductionGuard,
) *DeductionService {
	return &DeductionService{
		scope:      scope,
		products:   products,
		warehouses: warehouses,
		alerts:     alerts,
		guard:      guard,
		validate:   validator.New(),
		maxRetries: DefaultMaxRetries,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *DeductionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMaxRetries overrides the optimistic retry budget
func (s *DeductionService) SetMaxRetries(n int) {
	if n > 0 {
		s.maxRetries = n
	}
}

// SetDefaultActor overrides the actor recorded on movements when the
// incoming event carries none
func (s *DeductionService) SetDefaultActor(actor string) {
	if actor != "" {
		s.defaultActor = actor
	}
}

// ProcessOrderEvent applies the stock consequences of an order status
// change. The returned result always describes what happened; the error
// return is reserved for failures outside individual line items
// (validation, warehouse resolution, guard access).
func (s *DeductionService) ProcessOrderEvent(ctx context.Context, event OrderStatusEvent) (*DeductionResult, error) {
	if err := s.validate.Struct(event); err != nil {
		return nil, shared.NewDomainError("VALIDATION_FAILED", err.Error())
	}

	result := &DeductionResult{
		OrderID:               event.OrderID,
		Action:                DetermineAction(event.Status, event.CarrierStatus),
		TotalQuantityDeducted: decimal.Zero,
	}
	if result.Action == ActionNone {
		result.Success = true
		result.Skipped = true
		result.SkipReason = fmt.Sprintf("status %q requires no stock action", event.Status)
		return result, nil
	}

	deducted, err := s.guard.IsDeducted(ctx, event.OrderID)
	if err != nil {
		return nil, err
	}
	switch result.Action {
	case ActionDeductShipped, ActionDeductSold:
		if deducted {
			result.Success = true
			result.Skipped = true
			result.SkipReason = "stock already deducted for this order"
			return result, nil
		}
	case ActionAddBack:
		if !deducted {
			result.Success = true
			result.Skipped = true
			result.SkipReason = "no prior deduction recorded for this order"
			return result, nil
		}
	}

	wh, err := s.warehouses.Resolve(ctx, event.WarehouseCode)
	if err != nil {
		return nil, err
	}

	actor := event.Actor
	if actor == "" {
		actor = s.defaultActor
	}
	if actor == "" {
		actor = inventory.SystemActor
	}

	for _, item := range event.Items {
		result.ItemsProcessed++
		itemResult := s.processItem(ctx, wh, event.OrderID, item, result.Action, actor)
		result.Items = append(result.Items, itemResult.result)
		result.Movements = append(result.Movements, itemResult.movements...)
		result.MovementCount += itemResult.result.LotsUsed
		if itemResult.result.Successful {
			result.ItemsSucceeded++
			if result.Action != ActionAddBack {
				result.TotalQuantityDeducted = result.TotalQuantityDeducted.Add(item.Quantity)
			}
		} else {
			result.Errors = append(result.Errors, inventory.NewItemError(item.ItemID, item.SKU, itemResult.err))
		}
	}
	result.Success = !result.HasErrors()

	// The order-level flag flips only when at least one item moved stock
	if result.ItemsSucceeded > 0 {
		switch result.Action {
		case ActionDeductShipped, ActionDeductSold:
			if err := s.guard.MarkDeducted(ctx, event.OrderID); err != nil {
				return result, err
			}
		case ActionAddBack:
			if err := s.guard.ClearDeducted(ctx, event.OrderID); err != nil {
				return result, err
			}
		}
	}
	return result, nil
}

type itemOutcome struct {
	result    ItemResult
	movements []MovementResponse
	err       error
}

func (s *DeductionService) processItem(ctx context.Context, wh *warehouse.Warehouse, orderID string, item OrderItem, action DeductionAction, actor string) itemOutcome {
	outcome := itemOutcome{result: ItemResult{ItemID: item.ItemID, SKU: item.SKU, Quantity: item.Quantity}}

	fail := func(err error) itemOutcome {
		outcome.err = err
		outcome.result.Error = err.Error()
		return outcome
	}

	if strings.TrimSpace(item.SKU) == "" {
		s.raiseMissingSKU(ctx, wh, orderID, item)
		return fail(inventory.ErrMissingSKU)
	}
	if !item.Quantity.IsPositive() {
		return fail(shared.NewDomainError("INVALID_QUANTITY", "Item quantity must be positive"))
	}

	product, err := s.products.ResolveOrCreateProduct(ctx, item.SKU, "")
	if err != nil {
		return fail(err)
	}

	switch action {
	case ActionDeductShipped, ActionDeductSold:
		movements, err := s.deductItem(ctx, product, wh, orderID, item, action, actor)
		if err != nil {
			if errors.Is(err, inventory.ErrInsufficientStock) {
				s.raiseInsufficientStock(ctx, product, wh, item)
			}
			return fail(err)
		}
		outcome.movements = movements
		outcome.result.LotsUsed = len(movements)
	case ActionAddBack:
		movement, err := s.addBackItem(ctx, product, wh, orderID, item, actor)
		if err != nil {
			return fail(err)
		}
		outcome.movements = []MovementResponse{*movement}
		outcome.result.LotsUsed = 1
	}

	outcome.result.Successful = true
	return outcome
}

// deductItem plans a FEFO allocation and applies it atomically: lot
// deductions, ledger entries and the stock level update commit together
// or not at all. An unfulfillable request leaves every lot untouched.
// Returns the ledger entries that were written.
func (s *DeductionService) deductItem(ctx context.Context, product *catalog.Product, wh *warehouse.Warehouse, orderID string, item OrderItem, action DeductionAction, actor string) ([]MovementResponse, error) {
	var (
		applied        []*inventory.StockMovement
		belowThreshold bool
		available      decimal.Decimal
	)

	err := executeWithRetry(ctx, s.scope, s.maxRetries, func(repos TransactionalRepositories) error {
		applied = nil
		belowThreshold = false

		lots, err := repos.LotRepo().FindAllocatable(ctx, product.ID, wh.ID)
		if err != nil {
			return err
		}
		plan := inventory.PlanFEFO(item.Quantity, lots)
		if !plan.Fulfillable {
			return inventory.ErrInsufficientStock
		}

		lotByID := make(map[string]*inventory.Lot, len(lots))
		for i := range lots {
			lotByID[lots[i].ID.String()] = &lots[i]
		}

		reason := "order shipped"
		if action == ActionDeductSold {
			reason = "order delivered"
		}

		movements := make([]*inventory.StockMovement, 0, len(plan.Deductions))
		for _, d := range plan.Deductions {
			lot := lotByID[d.LotID.String()]
			if lot == nil {
				return inventory.ErrLotNotFound
			}
			if err := lot.Deduct(d.Quantity); err != nil {
				return err
			}
			if err := repos.LotRepo().SaveWithLock(ctx, lot); err != nil {
				return err
			}

			movement, err := inventory.NewStockMovement(inventory.MovementOut, product.ID, wh.ID, &lot.ID, d.Quantity, d.UnitCost, d.QuantityBefore, actor)
			if err != nil {
				return err
			}
			movement.WithOrder(orderID).WithReason(reason)
			movements = append(movements, movement)
		}
		if err := repos.MovementRepo().CreateBatch(ctx, movements); err != nil {
			return err
		}

		level, err := repos.StockLevelRepo().GetOrCreate(ctx, product.ID, wh.ID)
		if err != nil {
			return err
		}
		if err := level.ApplyMovements(movements); err != nil {
			return err
		}
		if action == ActionDeductSold {
			level.AddSold(item.Quantity)
		} else {
			level.AddShipped(item.Quantity)
		}
		if err := repos.StockLevelRepo().SaveWithLock(ctx, level); err != nil {
			return err
		}

		applied = movements
		available = level.AvailableQuantity
		// Draining stock to zero warrants an alert even when the
		// product has no configured threshold
		belowThreshold = level.IsBelowThreshold(product.MinThreshold) || level.IsOutOfStock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, inventory.NewStockDeductedEvent(product.ID, wh.ID, orderID, item.Quantity, len(applied)))

	if belowThreshold {
		s.raiseLowStock(ctx, product, wh, available)
	}

	responses := make([]MovementResponse, 0, len(applied))
	for _, m := range applied {
		responses = append(responses, ToMovementResponse(m))
	}
	return responses, nil
}

// addBackItem credits the returned quantity to the most recently
// created active lot for the product. Without per-lot provenance on the
// order there is no way to know which lot originally served it, so the
// newest active lot absorbs the return.
func (s *DeductionService) addBackItem(ctx context.Context, product *catalog.Product, wh *warehouse.Warehouse, orderID string, item OrderItem, actor string) (*MovementResponse, error) {
	var (
		lotID    uuid.UUID
		movement *inventory.StockMovement
	)

	err := executeWithRetry(ctx, s.scope, s.maxRetries, func(repos TransactionalRepositories) error {
		lot, err := repos.LotRepo().FindMostRecentActive(ctx, product.ID, wh.ID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return inventory.ErrNoActiveLotForRestock
			}
			return err
		}

		movement, err = inventory.NewStockMovement(inventory.MovementReturn, product.ID, wh.ID, &lot.ID, item.Quantity, lot.UnitCost, lot.CurrentQuantity, actor)
		if err != nil {
			return err
		}
		movement.WithOrder(orderID).WithReason("order cancelled or returned")

		if err := lot.AddBack(item.Quantity); err != nil {
			return err
		}
		if err := repos.LotRepo().SaveWithLock(ctx, lot); err != nil {
			return err
		}
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
		level.SubtractShipped(item.Quantity)
		if err := repos.StockLevelRepo().SaveWithLock(ctx, level); err != nil {
			return err
		}

		lotID = lot.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, inventory.NewStockAddedBackEvent(product.ID, wh.ID, lotID, orderID, item.Quantity))

	response := ToMovementResponse(movement)
	return &response, nil
}

func (s *DeductionService) raiseMissingSKU(ctx context.Context, wh *warehouse.Warehouse, orderID string, item OrderItem) {
	if s.alerts == nil {
		return
	}
	_, _, _ = s.alerts.Raise(ctx, RaiseParams{
		Type:        inventory.AlertMissingSKU,
		Severity:    inventory.SeverityWarning,
		WarehouseID: wh.ID,
		Current:     item.Quantity,
		Message:     fmt.Sprintf("order %s item %s has no SKU; stock not tracked", orderID, item.ItemID),
	})
}

func (s *DeductionService) raiseInsufficientStock(ctx context.Context, product *catalog.Product, wh *warehouse.Warehouse, item OrderItem) {
	if s.alerts == nil {
		return
	}
	_, _, _ = s.alerts.Raise(ctx, RaiseParams{
		Type:        inventory.AlertInsufficientStock,
		Severity:    inventory.SeverityCritical,
		ProductID:   &product.ID,
		WarehouseID: wh.ID,
		SKU:         product.SKU,
		Current:     decimal.Zero,
		Threshold:   item.Quantity,
		Message:     fmt.Sprintf("cannot fulfill %s units of %s; insufficient stock", item.Quantity.String(), product.SKU),
	})
}

// raiseLowStock flags stock that fell below its threshold after a
// deduction. Stock that hit zero escalates to CRITICAL.
func (s *DeductionService) raiseLowStock(ctx context.Context, product *catalog.Product, wh *warehouse.Warehouse, available decimal.Decimal) {
	if s.alerts == nil {
		return
	}
	severity := inventory.SeverityWarning
	if !available.IsPositive() {
		severity = inventory.SeverityCritical
	}
	_, _, _ = s.alerts.Raise(ctx, RaiseParams{
		Type:        inventory.AlertLowStock,
		Severity:    severity,
		ProductID:   &product.ID,
		WarehouseID: wh.ID,
		SKU:         product.SKU,
		Current:     available,
		Threshold:   product.MinThreshold,
		Message:     fmt.Sprintf("available stock %s of %s is below threshold %s", available.String(), product.SKU, product.MinThreshold.String()),
	})
}

func (s *DeductionService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}
