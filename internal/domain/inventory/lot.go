package inventory

import (
	"strings"
	"time"

	"github.com/fulfillment/stock-engine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QualityStatus represents the quality state of a lot
type QualityStatus string

const (
	QualityNormal     QualityStatus = "NORMAL"
	QualityDamaged    QualityStatus = "DAMAGED"
	QualityQuarantine QualityStatus = "QUARANTINE"
)

// Lot represents a physical batch of stock received together. Lots are
// the source of truth for on-hand quantity; stock levels are derived
// from them. A lot is never hard-deleted, only deactivated once empty.
type Lot struct {
	shared.BaseAggregateRoot
	LotNumber        string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_lot_number"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_lot_product_warehouse"`
	WarehouseID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_lot_product_warehouse"`
	InitialQuantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CurrentQuantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReservedQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ProductionDate   time.Time       `gorm:"not null"`
	ExpiryDate       *time.Time      `gorm:"index"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalCost        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	QualityStatus    QualityStatus   `gorm:"type:varchar(20);not null;default:'NORMAL'"`
	SupplierRef      string          `gorm:"type:varchar(200)"`
	Notes            string          `gorm:"type:text"`
	Active           bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Lot) TableName() string {
	return "lots"
}

// NewLot creates a new lot from a stock receipt
func NewLot(lotNumber string, productID, warehouseID uuid.UUID, quantity, unitCost decimal.Decimal, productionDate time.Time, expiryDate *time.Time) (*Lot, error) {
	lotNumber = strings.TrimSpace(lotNumber)
	if lotNumber == "" {
		return nil, shared.NewDomainError("INVALID_LOT_NUMBER", "Lot number cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Lot quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	if productionDate.IsZero() {
		productionDate = time.Now()
	}
	if expiryDate != nil && !expiryDate.After(productionDate) {
		return nil, shared.NewDomainError("INVALID_EXPIRY", "Expiry date must be after production date")
	}

	return &Lot{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		LotNumber:         lotNumber,
		ProductID:         productID,
		WarehouseID:       warehouseID,
		InitialQuantity:   quantity,
		CurrentQuantity:   quantity,
		ReservedQuantity:  decimal.Zero,
		ProductionDate:    productionDate,
		ExpiryDate:        expiryDate,
		UnitCost:          unitCost,
		TotalCost:         quantity.Mul(unitCost).Round(4),
		QualityStatus:     QualityNormal,
		Active:            true,
	}, nil
}

// AvailableQuantity returns the quantity not held by reservations
func (l *Lot) AvailableQuantity() decimal.Decimal {
	return l.CurrentQuantity.Sub(l.ReservedQuantity)
}

// IsAllocatable reports whether the lot can serve outbound allocations
func (l *Lot) IsAllocatable() bool {
	return l.Active && l.QualityStatus == QualityNormal && l.CurrentQuantity.IsPositive()
}

// IsExpired reports whether the lot has passed its expiry date
func (l *Lot) IsExpired() bool {
	return l.ExpiryDate != nil && l.ExpiryDate.Before(time.Now())
}

// ExpiresWithin reports whether the lot expires within the given window.
// Lots without an expiry date never expire.
func (l *Lot) ExpiresWithin(window time.Duration) bool {
	if l.ExpiryDate == nil {
		return false
	}
	return l.ExpiryDate.Before(time.Now().Add(window))
}

// DaysUntilExpiry returns the whole days until expiry, negative when
// already expired. Returns false when the lot has no expiry date.
func (l *Lot) DaysUntilExpiry() (int, bool) {
	if l.ExpiryDate == nil {
		return 0, false
	}
	return int(time.Until(*l.ExpiryDate).Hours() / 24), true
}

// Deduct removes quantity from the lot. The caller plans deductions so
// that a lot is never driven below zero; violating that is an error here.
func (l *Lot) Deduct(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Deduction quantity must be positive")
	}
	if quantity.GreaterThan(l.CurrentQuantity) {
		return ErrInsufficientStock
	}
	l.CurrentQuantity = l.CurrentQuantity.Sub(quantity)
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
	return nil
}

// AddBack credits quantity back to the lot, used for cancellations and
// returns. The lot may exceed its initial quantity when returns arrive
// after partial receipts were consumed elsewhere.
func (l *Lot) AddBack(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Add-back quantity must be positive")
	}
	if !l.Active {
		return shared.NewDomainError("LOT_INACTIVE", "Cannot credit stock to an inactive lot")
	}
	l.CurrentQuantity = l.CurrentQuantity.Add(quantity)
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
	return nil
}

// UpdateDetails edits the expiry date, unit cost and notes of a lot.
// Nil fields are left untouched. Changing the unit cost recomputes the
// total cost from the current quantity.
func (l *Lot) UpdateDetails(expiryDate *time.Time, unitCost *decimal.Decimal, notes *string) error {
	if expiryDate != nil && !expiryDate.After(l.ProductionDate) {
		return shared.NewDomainError("INVALID_EXPIRY", "Expiry date must be after production date")
	}
	if unitCost != nil && unitCost.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	if expiryDate != nil {
		l.ExpiryDate = expiryDate
	}
	if unitCost != nil {
		l.UnitCost = *unitCost
		l.TotalCost = l.CurrentQuantity.Mul(*unitCost).Round(4)
	}
	if notes != nil {
		l.Notes = *notes
	}
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
	return nil
}

// Reserve holds quantity against future outbound without deducting it
func (l *Lot) Reserve(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Reservation quantity must be positive")
	}
	if quantity.GreaterThan(l.AvailableQuantity()) {
		return ErrInsufficientStock
	}
	l.ReservedQuantity = l.ReservedQuantity.Add(quantity)
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
	return nil
}

// ReleaseReservation releases a previously held quantity
func (l *Lot) ReleaseReservation(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewDomainError("INVALID_QUANTITY", "Release quantity must be positive")
	}
	if quantity.GreaterThan(l.ReservedQuantity) {
		return shared.NewDomainError("INVALID_QUANTITY", "Cannot release more than is reserved")
	}
	l.ReservedQuantity = l.ReservedQuantity.Sub(quantity)
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
	return nil
}

// SetQualityStatus updates the quality state of the lot
func (l *Lot) SetQualityStatus(status QualityStatus) error {
	switch status {
	case QualityNormal, QualityDamaged, QualityQuarantine:
	default:
		return shared.NewDomainError("INVALID_QUALITY_STATUS", "Unknown quality status")
	}
	l.QualityStatus = status
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
	return nil
}

// Deactivate retires an empty lot
func (l *Lot) Deactivate() error {
	if l.CurrentQuantity.IsPositive() {
		return shared.NewDomainError("LOT_NOT_EMPTY", "Cannot deactivate a lot with remaining stock")
	}
	if !l.Active {
		return shared.NewDomainError("ALREADY_INACTIVE", "Lot is already inactive")
	}
	l.Active = false
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
	return nil
}
