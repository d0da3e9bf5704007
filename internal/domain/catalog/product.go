package catalog

import (
	"strings"
	"time"

	"github.com/fulfillment/stock-engine/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product represents a stock-keeping unit tracked by the engine.
// It is the aggregate root for catalog operations. The SKU is the
// immutable external identity; products are never hard-deleted.
type Product struct {
	shared.BaseAggregateRoot
	SKU          string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_product_sku"`
	Name         string          `gorm:"type:varchar(200);not null"`
	Category     string          `gorm:"type:varchar(100);index"`
	Unit         string          `gorm:"type:varchar(20);not null;default:'pcs'"`
	MinThreshold decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Minimum stock level for alerts
	ReorderPoint decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Active       bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product
func NewProduct(sku, name string) (*Product, error) {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if len(sku) > 64 {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 64 characters")
	}
	if strings.TrimSpace(name) == "" {
		name = sku
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               sku,
		Name:              name,
		Unit:              "pcs",
		MinThreshold:      decimal.Zero,
		ReorderPoint:      decimal.Zero,
		Active:            true,
	}, nil
}

// Update updates the product's descriptive fields
func (p *Product) Update(name, category, unit string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	p.Name = name
	p.Category = category
	if unit != "" {
		p.Unit = unit
	}
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// SetThresholds sets the minimum stock threshold and reorder point
func (p *Product) SetThresholds(minThreshold, reorderPoint decimal.Decimal) error {
	if minThreshold.IsNegative() || reorderPoint.IsNegative() {
		return shared.NewDomainError("INVALID_THRESHOLD", "Thresholds cannot be negative")
	}
	p.MinThreshold = minThreshold
	p.ReorderPoint = reorderPoint
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// Deactivate marks the product as inactive. Products are never deleted;
// the caller must verify that no stock remains before deactivating.
func (p *Product) Deactivate() error {
	if !p.Active {
		return shared.NewDomainError("ALREADY_INACTIVE", "Product is already inactive")
	}
	p.Active = false
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// Activate re-enables an inactive product
func (p *Product) Activate() {
	p.Active = true
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// HasThreshold returns true if a minimum threshold is configured
func (p *Product) HasThreshold() bool {
	return p.MinThreshold.GreaterThan(decimal.Zero)
}
