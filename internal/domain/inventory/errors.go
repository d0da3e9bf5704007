package inventory

import (
	"github.com/fulfillment/stock-engine/internal/domain/shared"
	"github.com/google/uuid"
)

// Closed error taxonomy for the inventory engine. Item-local errors
// (MissingSKU, InsufficientStock, NoActiveLotForRestock, contention) are
// collected per line item and never abort the remaining items of an order.
var (
	ErrProductNotFound         = shared.NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
	ErrWarehouseNotFound       = shared.NewDomainError("WAREHOUSE_NOT_FOUND", "Warehouse not found")
	ErrLotNotFound             = shared.NewDomainError("LOT_NOT_FOUND", "Lot not found")
	ErrLotNumberConflict       = shared.NewDomainError("LOT_NUMBER_CONFLICT", "Lot number already exists")
	ErrInsufficientStock       = shared.NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrMissingSKU              = shared.NewDomainError("MISSING_SKU", "Line item has no SKU and cannot be tracked")
	ErrNoActiveLotForRestock   = shared.NewDomainError("NO_ACTIVE_LOT_FOR_RESTOCK", "No active lot available to credit returned stock")
	ErrAlreadyResolved         = shared.NewDomainError("ALREADY_RESOLVED", "Alert is already resolved")
	ErrStoreContentionExceeded = shared.NewDomainError("STORE_CONTENTION_EXCEEDED", "Transaction could not commit after bounded retries")
)

// ItemError records a failure scoped to a single order line item
type ItemError struct {
	ItemID string `json:"item_id"`
	SKU    string `json:"sku,omitempty"`
	Err    error  `json:"-"`
	Reason string `json:"reason"`
}

// NewItemError creates an item-level error record
func NewItemError(itemID, sku string, err error) ItemError {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	return ItemError{
		ItemID: itemID,
		SKU:    sku,
		Err:    err,
		Reason: reason,
	}
}

// Is reports whether the item error wraps the given sentinel
func (e ItemError) Is(target error) bool {
	return e.Err == target
}

// Error implements the error interface
func (e ItemError) Error() string {
	if e.SKU != "" {
		return "item " + e.ItemID + " (" + e.SKU + "): " + e.Reason
	}
	return "item " + e.ItemID + ": " + e.Reason
}

// SystemActor is the actor recorded on movements created by automated flows
const SystemActor = "system"

// NilIfEmpty returns nil for the zero UUID, otherwise a pointer to it
func NilIfEmpty(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
