package inventory

import (
	"time"

	"github.com/fulfillment/stock-engine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockLevel is the derived per-product, per-warehouse aggregate view
// of stock. Lots remain the source of truth; a stock level is a cache
// maintained incrementally by ApplyMovement and repairable at any time
// from lot state via ReconcileFromLots.
type StockLevel struct {
	shared.BaseAggregateRoot
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_level_product_warehouse"`
	WarehouseID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_level_product_warehouse"`
	TotalQuantity     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AvailableQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ReservedQuantity  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalShipped      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalSold         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AverageCost       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalValue        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LastMovementAt    *time.Time
}

// TableName returns the table name for GORM
func (StockLevel) TableName() string {
	return "stock_levels"
}

// NewStockLevel creates an empty stock level for a product and warehouse
func NewStockLevel(productID, warehouseID uuid.UUID) (*StockLevel, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	return &StockLevel{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		WarehouseID:       warehouseID,
		TotalQuantity:     decimal.Zero,
		AvailableQuantity: decimal.Zero,
		ReservedQuantity:  decimal.Zero,
		TotalShipped:      decimal.Zero,
		TotalSold:         decimal.Zero,
		AverageCost:       decimal.Zero,
		TotalValue:        decimal.Zero,
	}, nil
}

// ApplyMovement folds one movement into the aggregate. Inbound
// movements with a unit cost shift the weighted average cost; outbound
// movements consume at the current average.
func (s *StockLevel) ApplyMovement(m *StockMovement) error {
	if err := s.fold(m); err != nil {
		return err
	}
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

// ApplyMovements folds several movements committed in one transaction,
// bumping the optimistic version once for the whole batch
func (s *StockLevel) ApplyMovements(movements []*StockMovement) error {
	for _, m := range movements {
		if err := s.fold(m); err != nil {
			return err
		}
	}
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
	return nil
}

func (s *StockLevel) fold(m *StockMovement) error {
	delta := m.SignedQuantity()
	newTotal := s.TotalQuantity.Add(delta)
	if newTotal.IsNegative() {
		return ErrInsufficientStock
	}

	if delta.IsPositive() && m.UnitCost.IsPositive() {
		// Weighted average: (oldAvg*oldTotal + unitCost*qty) / newTotal
		numerator := s.AverageCost.Mul(s.TotalQuantity).Add(m.UnitCost.Mul(delta))
		s.AverageCost = numerator.Div(newTotal).Round(4)
	}
	if newTotal.IsZero() {
		s.AverageCost = decimal.Zero
	}

	s.TotalQuantity = newTotal
	s.AvailableQuantity = s.TotalQuantity.Sub(s.ReservedQuantity)
	s.TotalValue = s.TotalQuantity.Mul(s.AverageCost).Round(4)
	now := m.OccurredAt
	s.LastMovementAt = &now
	return nil
}

// AddShipped accumulates quantity into the lifetime shipped counter
func (s *StockLevel) AddShipped(quantity decimal.Decimal) {
	s.TotalShipped = s.TotalShipped.Add(quantity)
	s.UpdatedAt = time.Now()
}

// AddSold accumulates quantity into the lifetime sold counter
func (s *StockLevel) AddSold(quantity decimal.Decimal) {
	s.TotalSold = s.TotalSold.Add(quantity)
	s.UpdatedAt = time.Now()
}

// SubtractShipped reverses shipped quantity on add-back, floored at zero
func (s *StockLevel) SubtractShipped(quantity decimal.Decimal) {
	s.TotalShipped = decimal.Max(decimal.Zero, s.TotalShipped.Sub(quantity))
	s.UpdatedAt = time.Now()
}

// ReconcileFromLots rebuilds the derived quantities from the lots that
// back this stock level, discarding any accumulated drift. Lifetime
// shipped/sold counters are preserved; they have no lot-side truth.
func (s *StockLevel) ReconcileFromLots(lots []Lot) {
	total := decimal.Zero
	reserved := decimal.Zero
	value := decimal.Zero
	for _, lot := range lots {
		if !lot.Active {
			continue
		}
		total = total.Add(lot.CurrentQuantity)
		reserved = reserved.Add(lot.ReservedQuantity)
		value = value.Add(lot.CurrentQuantity.Mul(lot.UnitCost))
	}

	s.TotalQuantity = total
	s.ReservedQuantity = reserved
	s.AvailableQuantity = total.Sub(reserved)
	if total.IsPositive() {
		s.AverageCost = value.Div(total).Round(4)
	} else {
		s.AverageCost = decimal.Zero
	}
	s.TotalValue = value.Round(4)
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}

// IsBelowThreshold reports whether available stock has fallen below the
// given minimum threshold. Stock sitting exactly at the threshold does
// not trigger. A zero threshold never triggers.
func (s *StockLevel) IsBelowThreshold(threshold decimal.Decimal) bool {
	if !threshold.IsPositive() {
		return false
	}
	return s.AvailableQuantity.LessThan(threshold)
}

// IsOutOfStock reports whether no stock is available
func (s *StockLevel) IsOutOfStock() bool {
	return !s.AvailableQuantity.IsPositive()
}
