package inventory

import (
	"time"

	"github.com/fulfillment/stock-engine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AlertType classifies a stock alert
type AlertType string

const (
	AlertLowStock          AlertType = "LOW_STOCK"
	AlertOutOfStock        AlertType = "OUT_OF_STOCK"
	AlertInsufficientStock AlertType = "INSUFFICIENT_STOCK"
	AlertExpiringSoon      AlertType = "EXPIRING_SOON"
	AlertExpired           AlertType = "EXPIRED"
	AlertMissingSKU        AlertType = "MISSING_SKU"
)

// AlertSeverity ranks the urgency of an alert
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "INFO"
	SeverityWarning  AlertSeverity = "WARNING"
	SeverityCritical AlertSeverity = "CRITICAL"
)

// StockAlert is an operational signal raised by the engine. At most one
// unresolved alert exists per product, warehouse and type; repeated
// triggers refresh the open alert instead of stacking duplicates.
type StockAlert struct {
	shared.BaseEntity
	AlertType       AlertType       `gorm:"type:varchar(30);not null;index:idx_alert_open"`
	Severity        AlertSeverity   `gorm:"type:varchar(20);not null;index"`
	ProductID       *uuid.UUID      `gorm:"type:uuid;index:idx_alert_open"` // Nil for MISSING_SKU alerts
	WarehouseID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_alert_open"`
	LotID           *uuid.UUID      `gorm:"type:uuid;index"`
	SKU             string          `gorm:"type:varchar(64)"`
	CurrentQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Threshold       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Message         string          `gorm:"type:varchar(500);not null"`
	Resolved        bool            `gorm:"not null;default:false;index:idx_alert_open"`
	ResolvedBy      string          `gorm:"type:varchar(100)"`
	ResolvedAt      *time.Time
}

// TableName returns the table name for GORM
func (StockAlert) TableName() string {
	return "stock_alerts"
}

// NewStockAlert creates a new open alert
func NewStockAlert(alertType AlertType, severity AlertSeverity, productID *uuid.UUID, warehouseID uuid.UUID, message string) (*StockAlert, error) {
	switch alertType {
	case AlertLowStock, AlertOutOfStock, AlertInsufficientStock, AlertExpiringSoon, AlertExpired, AlertMissingSKU:
	default:
		return nil, shared.NewDomainError("INVALID_ALERT_TYPE", "Unknown alert type")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if message == "" {
		return nil, shared.NewDomainError("INVALID_MESSAGE", "Alert message cannot be empty")
	}

	return &StockAlert{
		BaseEntity:  shared.NewBaseEntity(),
		AlertType:   alertType,
		Severity:    severity,
		ProductID:   productID,
		WarehouseID: warehouseID,
		Message:     message,
	}, nil
}

// WithQuantities records the observed quantity and the threshold that
// was crossed when the alert fired
func (a *StockAlert) WithQuantities(current, threshold decimal.Decimal) *StockAlert {
	a.CurrentQuantity = current
	a.Threshold = threshold
	return a
}

// WithLot links the alert to a specific lot (expiry alerts)
func (a *StockAlert) WithLot(lotID uuid.UUID) *StockAlert {
	a.LotID = &lotID
	return a
}

// WithSKU records the SKU string, used for MISSING_SKU alerts where no
// product exists to reference
func (a *StockAlert) WithSKU(sku string) *StockAlert {
	a.SKU = sku
	return a
}

// Refresh updates an open alert in place with the latest observation
func (a *StockAlert) Refresh(severity AlertSeverity, current decimal.Decimal, message string) error {
	if a.Resolved {
		return ErrAlreadyResolved
	}
	a.Severity = severity
	a.CurrentQuantity = current
	if message != "" {
		a.Message = message
	}
	a.UpdatedAt = time.Now()
	return nil
}

// Resolve closes the alert. Resolving an already resolved alert is an
// error so that double acknowledgements surface.
func (a *StockAlert) Resolve(resolvedBy string) error {
	if a.Resolved {
		return ErrAlreadyResolved
	}
	if resolvedBy == "" {
		resolvedBy = SystemActor
	}
	now := time.Now()
	a.Resolved = true
	a.ResolvedBy = resolvedBy
	a.ResolvedAt = &now
	a.UpdatedAt = now
	return nil
}
