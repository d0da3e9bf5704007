package inventory

import (
	"github.com/fulfillment/stock-engine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types published by the inventory domain
const (
	EventTypeStockReceived       = "inventory.stock.received"
	EventTypeStockDeducted       = "inventory.stock.deducted"
	EventTypeStockAddedBack      = "inventory.stock.added_back"
	EventTypeStockBelowThreshold = "inventory.stock.below_threshold"
	EventTypeStockOut            = "inventory.stock.out"
	EventTypeLotExpiringSoon     = "inventory.lot.expiring_soon"
	EventTypeAlertRaised         = "inventory.alert.raised"
)

// StockReceivedEvent is published when a new lot is received
type StockReceivedEvent struct {
	shared.BaseDomainEvent
	LotID       uuid.UUID       `json:"lot_id"`
	LotNumber   string          `json:"lot_number"`
	ProductID   uuid.UUID       `json:"product_id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

// NewStockReceivedEvent creates a stock received event
func NewStockReceivedEvent(lot *Lot) *StockReceivedEvent {
	return &StockReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReceived, "Lot", lot.ID),
		LotID:           lot.ID,
		LotNumber:       lot.LotNumber,
		ProductID:       lot.ProductID,
		WarehouseID:     lot.WarehouseID,
		Quantity:        lot.InitialQuantity,
		UnitCost:        lot.UnitCost,
	}
}

// StockDeductedEvent is published after an outbound deduction commits
type StockDeductedEvent struct {
	shared.BaseDomainEvent
	ProductID   uuid.UUID       `json:"product_id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	OrderID     string          `json:"order_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	LotCount    int             `json:"lot_count"`
}

// NewStockDeductedEvent creates a stock deducted event
func NewStockDeductedEvent(productID, warehouseID uuid.UUID, orderID string, quantity decimal.Decimal, lotCount int) *StockDeductedEvent {
	return &StockDeductedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockDeducted, "StockLevel", productID),
		ProductID:       productID,
		WarehouseID:     warehouseID,
		OrderID:         orderID,
		Quantity:        quantity,
		LotCount:        lotCount,
	}
}

// StockAddedBackEvent is published after stock is credited back
type StockAddedBackEvent struct {
	shared.BaseDomainEvent
	ProductID   uuid.UUID       `json:"product_id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	LotID       uuid.UUID       `json:"lot_id"`
	OrderID     string          `json:"order_id"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// NewStockAddedBackEvent creates a stock added back event
func NewStockAddedBackEvent(productID, warehouseID, lotID uuid.UUID, orderID string, quantity decimal.Decimal) *StockAddedBackEvent {
	return &StockAddedBackEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAddedBack, "StockLevel", productID),
		ProductID:       productID,
		WarehouseID:     warehouseID,
		LotID:           lotID,
		OrderID:         orderID,
		Quantity:        quantity,
	}
}

// StockBelowThresholdEvent is published when available stock crosses a
// configured minimum threshold
type StockBelowThresholdEvent struct {
	shared.BaseDomainEvent
	ProductID   uuid.UUID       `json:"product_id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Available   decimal.Decimal `json:"available"`
	Threshold   decimal.Decimal `json:"threshold"`
}

// NewStockBelowThresholdEvent creates a below-threshold event
func NewStockBelowThresholdEvent(productID, warehouseID uuid.UUID, available, threshold decimal.Decimal) *StockBelowThresholdEvent {
	eventType := EventTypeStockBelowThreshold
	if !available.IsPositive() {
		eventType = EventTypeStockOut
	}
	return &StockBelowThresholdEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "StockLevel", productID),
		ProductID:       productID,
		WarehouseID:     warehouseID,
		Available:       available,
		Threshold:       threshold,
	}
}

// LotExpiringSoonEvent is published by the expiry sweep for lots inside
// the expiry warning window
type LotExpiringSoonEvent struct {
	shared.BaseDomainEvent
	LotID       uuid.UUID       `json:"lot_id"`
	LotNumber   string          `json:"lot_number"`
	ProductID   uuid.UUID       `json:"product_id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Remaining   decimal.Decimal `json:"remaining"`
	DaysLeft    int             `json:"days_left"`
}

// NewLotExpiringSoonEvent creates a lot expiring soon event
func NewLotExpiringSoonEvent(lot *Lot, daysLeft int) *LotExpiringSoonEvent {
	return &LotExpiringSoonEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLotExpiringSoon, "Lot", lot.ID),
		LotID:           lot.ID,
		LotNumber:       lot.LotNumber,
		ProductID:       lot.ProductID,
		WarehouseID:     lot.WarehouseID,
		Remaining:       lot.CurrentQuantity,
		DaysLeft:        daysLeft,
	}
}

// AlertRaisedEvent is published when a new alert is opened or an open
// alert escalates in severity
type AlertRaisedEvent struct {
	shared.BaseDomainEvent
	AlertID   uuid.UUID     `json:"alert_id"`
	AlertType AlertType     `json:"alert_type"`
	Severity  AlertSeverity `json:"severity"`
	Message   string        `json:"message"`
}

// NewAlertRaisedEvent creates an alert raised event
func NewAlertRaisedEvent(alert *StockAlert) *AlertRaisedEvent {
	return &AlertRaisedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAlertRaised, "StockAlert", alert.ID),
		AlertID:         alert.ID,
		AlertType:       alert.AlertType,
		Severity:        alert.Severity,
		Message:         alert.Message,
	}
}
