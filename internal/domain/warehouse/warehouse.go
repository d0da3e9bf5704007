package warehouse

import (
	"strings"
	"time"

	"github.com/fulfillment/stock-engine/internal/domain/shared"
)

// Warehouse represents a physical stock location
type Warehouse struct {
	shared.BaseAggregateRoot
	Code    string `gorm:"type:varchar(50);not null;uniqueIndex:idx_warehouse_code"`
	Name    string `gorm:"type:varchar(200);not null"`
	Address string `gorm:"type:varchar(500)"`
	Primary bool   `gorm:"column:is_primary;not null;default:false"` // Default target when no warehouse hint is given
	Active  bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Warehouse) TableName() string {
	return "warehouses"
}

// NewWarehouse creates a new warehouse
func NewWarehouse(code, name string) (*Warehouse, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Warehouse code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Warehouse name cannot be empty")
	}

	return &Warehouse{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		Active:            true,
	}, nil
}

// MarkPrimary marks this warehouse as the primary location
func (w *Warehouse) MarkPrimary() {
	w.Primary = true
	w.UpdatedAt = time.Now()
	w.IncrementVersion()
}

// Deactivate marks the warehouse as inactive
func (w *Warehouse) Deactivate() error {
	if !w.Active {
		return shared.NewDomainError("ALREADY_INACTIVE", "Warehouse is already inactive")
	}
	w.Active = false
	w.UpdatedAt = time.Now()
	w.IncrementVersion()
	return nil
}
