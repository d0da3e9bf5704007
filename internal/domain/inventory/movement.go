package inventory

import (
	"time"

	"github.com/fulfillment/stock-engine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType classifies a stock movement
type MovementType string

const (
	MovementIn         MovementType = "IN"         // Receipt into a lot
	MovementOut        MovementType = "OUT"        // Outbound deduction (shipment or sale)
	MovementAdjustment MovementType = "ADJUSTMENT" // Manual signed correction
	MovementReturn     MovementType = "RETURN"     // Stock credited back after cancellation or return
	MovementTransfer   MovementType = "TRANSFER"   // Outbound leg of a warehouse transfer
)

// IsValid reports whether the movement type is known
func (t MovementType) IsValid() bool {
	switch t {
	case MovementIn, MovementOut, MovementAdjustment, MovementReturn, MovementTransfer:
		return true
	}
	return false
}

// StockMovement is one immutable entry in the append-only movement
// ledger. Movements are never updated or deleted after creation; the
// before/after snapshots make each entry independently auditable.
type StockMovement struct {
	shared.BaseEntity
	MovementType   MovementType    `gorm:"type:varchar(20);not null;index"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_movement_product_warehouse"`
	WarehouseID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_movement_product_warehouse"`
	LotID          *uuid.UUID      `gorm:"type:uuid;index"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Signed for ADJUSTMENT, positive otherwise
	QuantityBefore decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	QuantityAfter  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalCost      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	OrderID        string          `gorm:"type:varchar(100);index"`
	Reference      string          `gorm:"type:varchar(200)"`
	Reason         string          `gorm:"type:varchar(500)"`
	Actor          string          `gorm:"type:varchar(100);not null"`
	OccurredAt     time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement records a movement against a lot. quantityBefore is
// the lot quantity observed inside the same transaction that mutates
// the lot; QuantityAfter is derived from the signed delta.
func NewStockMovement(movementType MovementType, productID, warehouseID uuid.UUID, lotID *uuid.UUID, quantity, unitCost, quantityBefore decimal.Decimal, actor string) (*StockMovement, error) {
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Unknown movement type")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if quantity.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Movement quantity cannot be zero")
	}
	if movementType != MovementAdjustment && quantity.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Movement quantity must be positive")
	}
	if actor == "" {
		actor = SystemActor
	}

	m := &StockMovement{
		BaseEntity:     shared.NewBaseEntity(),
		MovementType:   movementType,
		ProductID:      productID,
		WarehouseID:    warehouseID,
		LotID:          lotID,
		Quantity:       quantity,
		QuantityBefore: quantityBefore,
		UnitCost:       unitCost,
		TotalCost:      quantity.Abs().Mul(unitCost).Round(4),
		Actor:          actor,
		OccurredAt:     time.Now(),
	}
	m.QuantityAfter = quantityBefore.Add(m.SignedQuantity())
	if m.QuantityAfter.IsNegative() {
		return nil, ErrInsufficientStock
	}
	return m, nil
}

// SignedQuantity returns the delta this movement applies to on-hand
// stock: positive for IN and RETURN, negative for OUT and TRANSFER,
// and the raw signed quantity for ADJUSTMENT.
func (m *StockMovement) SignedQuantity() decimal.Decimal {
	switch m.MovementType {
	case MovementIn, MovementReturn:
		return m.Quantity.Abs()
	case MovementOut, MovementTransfer:
		return m.Quantity.Abs().Neg()
	default:
		return m.Quantity
	}
}

// WithOrder attaches the originating order reference
func (m *StockMovement) WithOrder(orderID string) *StockMovement {
	m.OrderID = orderID
	return m
}

// WithReference attaches an external document reference
func (m *StockMovement) WithReference(ref string) *StockMovement {
	m.Reference = ref
	return m
}

// WithReason attaches a human-readable reason
func (m *StockMovement) WithReason(reason string) *StockMovement {
	m.Reason = reason
	return m
}
