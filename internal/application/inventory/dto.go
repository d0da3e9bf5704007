package inventory

import (
	"time"

	"github.com/fulfillment/stock-engine/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiveStockRequest represents a stock receipt creating a new lot
type ReceiveStockRequest struct {
	SKU            string          `json:"sku" validate:"required,max=64"`
	ProductName    string          `json:"product_name" validate:"omitempty,max=200"`
	WarehouseCode  string          `json:"warehouse_code" validate:"omitempty,max=50"`
	LotNumber      string          `json:"lot_number" validate:"required,max=100"`
	Quantity       decimal.Decimal `json:"quantity" validate:"required"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	ProductionDate time.Time       `json:"production_date"`
	ExpiryDate     *time.Time      `json:"expiry_date"`
	SupplierRef    string          `json:"supplier_ref" validate:"omitempty,max=200"`
	Notes          string          `json:"notes"`
	Actor          string          `json:"actor" validate:"omitempty,max=100"`
}

// UpdateLotRequest edits the descriptive fields of an existing lot.
// Nil fields are left unchanged.
type UpdateLotRequest struct {
	LotNumber  string           `json:"lot_number" validate:"required,max=100"`
	ExpiryDate *time.Time       `json:"expiry_date"`
	UnitCost   *decimal.Decimal `json:"unit_cost"`
	Notes      *string          `json:"notes"`
}

// AdjustStockRequest represents a manual signed correction against a lot
type AdjustStockRequest struct {
	LotNumber string          `json:"lot_number" validate:"required,max=100"`
	Delta     decimal.Decimal `json:"delta" validate:"required"`
	Reason    string          `json:"reason" validate:"required,max=500"`
	Actor     string          `json:"actor" validate:"omitempty,max=100"`
}

// Order statuses understood by the deduction orchestrator
const (
	OrderStatusShipped   = "SHIPPED"
	OrderStatusDelivered = "DELIVERED"
	OrderStatusCancelled = "CANCELLED"
	OrderStatusReturned  = "RETURNED"
)

// Carrier statuses that refine the order status
const (
	CarrierStatusDelivered = "delivered"
	CarrierStatusCancelled = "cancelled"
)

// OrderItem is one line item of an order status event
type OrderItem struct {
	ItemID   string          `json:"item_id" validate:"required,max=100"`
	SKU      string          `json:"sku" validate:"omitempty,max=64"`
	Quantity decimal.Decimal `json:"quantity" validate:"required"`
}

// OrderStatusEvent is the inbound notification that drives automatic
// stock deduction. It mirrors what the order system publishes when an
// order or its carrier tracking changes state.
type OrderStatusEvent struct {
	OrderID       string      `json:"order_id" validate:"required,max=100"`
	Status        string      `json:"status" validate:"required,max=50"`
	CarrierStatus string      `json:"carrier_status" validate:"omitempty,max=50"`
	WarehouseCode string      `json:"warehouse_code" validate:"omitempty,max=50"`
	Items         []OrderItem `json:"items" validate:"required,min=1,dive"`
	Actor         string      `json:"actor" validate:"omitempty,max=100"`
}

// DeductionAction is the stock action derived from an order status
type DeductionAction string

const (
	ActionNone          DeductionAction = "NONE"
	ActionDeductShipped DeductionAction = "DEDUCT_SHIPPED"
	ActionDeductSold    DeductionAction = "DEDUCT_SOLD"
	ActionAddBack       DeductionAction = "ADD_BACK"
)

// ItemResult records the outcome for one processed line item
type ItemResult struct {
	ItemID     string          `json:"item_id"`
	SKU        string          `json:"sku"`
	Quantity   decimal.Decimal `json:"quantity"`
	LotsUsed   int             `json:"lots_used"`
	Successful bool            `json:"successful"`
	Error      string          `json:"error,omitempty"`
}

// DeductionResult is the per-order outcome of processing a status
// event. Success means no line item failed; a skipped event is
// successful by that definition.
type DeductionResult struct {
	OrderID               string                `json:"order_id"`
	Action                DeductionAction       `json:"action"`
	Success               bool                  `json:"success"`
	Skipped               bool                  `json:"skipped"`
	SkipReason            string                `json:"skip_reason,omitempty"`
	ItemsProcessed        int                   `json:"items_processed"`
	ItemsSucceeded        int                   `json:"items_succeeded"`
	MovementCount         int                   `json:"movement_count"`
	TotalQuantityDeducted decimal.Decimal       `json:"total_quantity_deducted"`
	Items                 []ItemResult          `json:"items"`
	Movements             []MovementResponse    `json:"movements,omitempty"`
	Errors                []inventory.ItemError `json:"errors,omitempty"`
}

// HasErrors reports whether any line item failed
func (r *DeductionResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// LotResponse represents a lot in API responses
type LotResponse struct {
	ID               uuid.UUID               `json:"id"`
	LotNumber        string                  `json:"lot_number"`
	ProductID        uuid.UUID               `json:"product_id"`
	WarehouseID      uuid.UUID               `json:"warehouse_id"`
	InitialQuantity  decimal.Decimal         `json:"initial_quantity"`
	CurrentQuantity  decimal.Decimal         `json:"current_quantity"`
	ReservedQuantity decimal.Decimal         `json:"reserved_quantity"`
	ProductionDate   time.Time               `json:"production_date"`
	ExpiryDate       *time.Time              `json:"expiry_date,omitempty"`
	UnitCost         decimal.Decimal         `json:"unit_cost"`
	TotalCost        decimal.Decimal         `json:"total_cost"`
	QualityStatus    inventory.QualityStatus `json:"quality_status"`
	Notes            string                  `json:"notes,omitempty"`
	Active           bool                    `json:"active"`
	CreatedAt        time.Time               `json:"created_at"`
	Version          int                     `json:"version"`
}

// ToLotResponse converts a lot to its response representation
func ToLotResponse(lot *inventory.Lot) LotResponse {
	return LotResponse{
		ID:               lot.ID,
		LotNumber:        lot.LotNumber,
		ProductID:        lot.ProductID,
		WarehouseID:      lot.WarehouseID,
		InitialQuantity:  lot.InitialQuantity,
		CurrentQuantity:  lot.CurrentQuantity,
		ReservedQuantity: lot.ReservedQuantity,
		ProductionDate:   lot.ProductionDate,
		ExpiryDate:       lot.ExpiryDate,
		UnitCost:         lot.UnitCost,
		TotalCost:        lot.TotalCost,
		QualityStatus:    lot.QualityStatus,
		Notes:            lot.Notes,
		Active:           lot.Active,
		CreatedAt:        lot.CreatedAt,
		Version:          lot.Version,
	}
}

// StockLevelResponse represents a stock level in API responses
type StockLevelResponse struct {
	ID                uuid.UUID       `json:"id"`
	ProductID         uuid.UUID       `json:"product_id"`
	WarehouseID       uuid.UUID       `json:"warehouse_id"`
	TotalQuantity     decimal.Decimal `json:"total_quantity"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	ReservedQuantity  decimal.Decimal `json:"reserved_quantity"`
	TotalShipped      decimal.Decimal `json:"total_shipped"`
	TotalSold         decimal.Decimal `json:"total_sold"`
	AverageCost       decimal.Decimal `json:"average_cost"`
	TotalValue        decimal.Decimal `json:"total_value"`
	LastMovementAt    *time.Time      `json:"last_movement_at,omitempty"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ToStockLevelResponse converts a stock level to its response representation
func ToStockLevelResponse(level *inventory.StockLevel) StockLevelResponse {
	return StockLevelResponse{
		ID:                level.ID,
		ProductID:         level.ProductID,
		WarehouseID:       level.WarehouseID,
		TotalQuantity:     level.TotalQuantity,
		AvailableQuantity: level.AvailableQuantity,
		ReservedQuantity:  level.ReservedQuantity,
		TotalShipped:      level.TotalShipped,
		TotalSold:         level.TotalSold,
		AverageCost:       level.AverageCost,
		TotalValue:        level.TotalValue,
		LastMovementAt:    level.LastMovementAt,
		UpdatedAt:         level.UpdatedAt,
	}
}

// MovementResponse represents a ledger entry in API responses
type MovementResponse struct {
	ID             uuid.UUID              `json:"id"`
	MovementType   inventory.MovementType `json:"movement_type"`
	ProductID      uuid.UUID              `json:"product_id"`
	WarehouseID    uuid.UUID              `json:"warehouse_id"`
	LotID          *uuid.UUID             `json:"lot_id,omitempty"`
	Quantity       decimal.Decimal        `json:"quantity"`
	QuantityBefore decimal.Decimal        `json:"quantity_before"`
	QuantityAfter  decimal.Decimal        `json:"quantity_after"`
	UnitCost       decimal.Decimal        `json:"unit_cost"`
	TotalCost      decimal.Decimal        `json:"total_cost"`
	OrderID        string                 `json:"order_id,omitempty"`
	Reference      string                 `json:"reference,omitempty"`
	Reason         string                 `json:"reason,omitempty"`
	Actor          string                 `json:"actor"`
	OccurredAt     time.Time              `json:"occurred_at"`
}

// ToMovementResponse converts a movement to its response representation
func ToMovementResponse(m *inventory.StockMovement) MovementResponse {
	return MovementResponse{
		ID:             m.ID,
		MovementType:   m.MovementType,
		ProductID:      m.ProductID,
		WarehouseID:    m.WarehouseID,
		LotID:          m.LotID,
		Quantity:       m.Quantity,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		UnitCost:       m.UnitCost,
		TotalCost:      m.TotalCost,
		OrderID:        m.OrderID,
		Reference:      m.Reference,
		Reason:         m.Reason,
		Actor:          m.Actor,
		OccurredAt:     m.OccurredAt,
	}
}

// AlertResponse represents a stock alert in API responses
type AlertResponse struct {
	ID              uuid.UUID               `json:"id"`
	AlertType       inventory.AlertType     `json:"alert_type"`
	Severity        inventory.AlertSeverity `json:"severity"`
	ProductID       *uuid.UUID              `json:"product_id,omitempty"`
	WarehouseID     uuid.UUID               `json:"warehouse_id"`
	LotID           *uuid.UUID              `json:"lot_id,omitempty"`
	SKU             string                  `json:"sku,omitempty"`
	CurrentQuantity decimal.Decimal         `json:"current_quantity"`
	Threshold       decimal.Decimal         `json:"threshold"`
	Message         string                  `json:"message"`
	Resolved        bool                    `json:"resolved"`
	ResolvedBy      string                  `json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time              `json:"resolved_at,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
}

// ToAlertResponse converts an alert to its response representation
func ToAlertResponse(a *inventory.StockAlert) AlertResponse {
	return AlertResponse{
		ID:              a.ID,
		AlertType:       a.AlertType,
		Severity:        a.Severity,
		ProductID:       a.ProductID,
		WarehouseID:     a.WarehouseID,
		LotID:           a.LotID,
		SKU:             a.SKU,
		CurrentQuantity: a.CurrentQuantity,
		Threshold:       a.Threshold,
		Message:         a.Message,
		Resolved:        a.Resolved,
		ResolvedBy:      a.ResolvedBy,
		ResolvedAt:      a.ResolvedAt,
		CreatedAt:       a.CreatedAt,
	}
}
