package inventory

import (
	"context"
	"time"

	"github.com/fulfillment/stock-engine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LotFilter narrows lot queries
type LotFilter struct {
	shared.Filter
	ProductID      *uuid.UUID
	WarehouseID    *uuid.UUID
	Active         *bool
	ExpiringBefore *time.Time
}

// MovementFilter narrows movement ledger queries
type MovementFilter struct {
	shared.Filter
	ProductID    *uuid.UUID
	WarehouseID  *uuid.UUID
	LotID        *uuid.UUID
	MovementType *MovementType
	OrderID      string
	Actor        string
	From         *time.Time
	To           *time.Time
}

// AlertFilter narrows alert queries
type AlertFilter struct {
	shared.Filter
	AlertType   *AlertType
	Severity    *AlertSeverity
	ProductID   *uuid.UUID
	WarehouseID *uuid.UUID
	Resolved    *bool
}

// MovementSummary aggregates the ledger by movement type
type MovementSummary struct {
	MovementType  MovementType    `json:"movement_type"`
	Count         int64           `json:"count"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalCost     decimal.Decimal `json:"total_cost"`
}

// AlertSummary aggregates alert counts by severity
type AlertSummary struct {
	Total      int64 `json:"total"`
	Unresolved int64 `json:"unresolved"`
	Critical   int64 `json:"critical"`
	Warning    int64 `json:"warning"`
	Info       int64 `json:"info"`
}

// LotRepository defines the interface for lot persistence
type LotRepository interface {
	// FindByID finds a lot by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Lot, error)

	// FindByNumber finds a lot by its unique lot number
	FindByNumber(ctx context.Context, lotNumber string) (*Lot, error)

	// FindAll finds lots matching the filter
	FindAll(ctx context.Context, filter LotFilter) ([]Lot, error)

	// FindAllocatable finds the active, normal-quality lots with stock
	// for a product in a warehouse, in no guaranteed order
	FindAllocatable(ctx context.Context, productID, warehouseID uuid.UUID) ([]Lot, error)

	// FindMostRecentActive finds the most recently created active lot
	// for a product in a warehouse; returns shared.ErrNotFound when the
	// product has no active lot there
	FindMostRecentActive(ctx context.Context, productID, warehouseID uuid.UUID) (*Lot, error)

	// FindExpiringBefore finds active lots with stock whose expiry date
	// falls before the cutoff
	FindExpiringBefore(ctx context.Context, cutoff time.Time) ([]Lot, error)

	// ExistsByNumber checks whether a lot number is already taken
	ExistsByNumber(ctx context.Context, lotNumber string) (bool, error)

	// Save creates or updates a lot without a version guard
	Save(ctx context.Context, lot *Lot) error

	// SaveWithLock updates a lot guarded by its optimistic version;
	// returns shared.ErrConcurrencyConflict on a stale version
	SaveWithLock(ctx context.Context, lot *Lot) error

	// Count counts lots matching the filter
	Count(ctx context.Context, filter LotFilter) (int64, error)
}

// MovementRepository defines the interface for the append-only movement
// ledger. Movements are only ever created, never updated or deleted.
type MovementRepository interface {
	// Create appends a movement to the ledger
	Create(ctx context.Context, movement *StockMovement) error

	// CreateBatch appends several movements atomically
	CreateBatch(ctx context.Context, movements []*StockMovement) error

	// FindByID finds a movement by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockMovement, error)

	// FindAll finds movements matching the filter, newest first
	FindAll(ctx context.Context, filter MovementFilter) ([]StockMovement, error)

	// FindByOrder finds all movements recorded for an order
	FindByOrder(ctx context.Context, orderID string) ([]StockMovement, error)

	// Count counts movements matching the filter
	Count(ctx context.Context, filter MovementFilter) (int64, error)

	// SummarizeByType aggregates the ledger by movement type over a window
	SummarizeByType(ctx context.Context, from, to time.Time) ([]MovementSummary, error)
}

// StockLevelRepository defines the interface for derived stock levels
type StockLevelRepository interface {
	// FindByID finds a stock level by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockLevel, error)

	// FindByProductAndWarehouse finds the stock level for a product in
	// a warehouse; returns shared.ErrNotFound when none exists yet
	FindByProductAndWarehouse(ctx context.Context, productID, warehouseID uuid.UUID) (*StockLevel, error)

	// GetOrCreate returns the stock level for a product in a warehouse,
	// creating an empty one when missing
	GetOrCreate(ctx context.Context, productID, warehouseID uuid.UUID) (*StockLevel, error)

	// FindAll finds stock levels matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]StockLevel, error)

	// FindByWarehouse finds all stock levels in a warehouse
	FindByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]StockLevel, error)

	// Save creates or updates a stock level without a version guard
	Save(ctx context.Context, level *StockLevel) error

	// SaveWithLock updates a stock level guarded by its optimistic
	// version; returns shared.ErrConcurrencyConflict on a stale version
	SaveWithLock(ctx context.Context, level *StockLevel) error

	// Count counts stock levels matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// AlertRepository defines the interface for stock alert persistence
type AlertRepository interface {
	// FindByID finds an alert by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockAlert, error)

	// FindOpen finds the single unresolved alert for a product,
	// warehouse and type; productID is nil for MISSING_SKU alerts.
	// Returns shared.ErrNotFound when no open alert exists.
	FindOpen(ctx context.Context, alertType AlertType, productID *uuid.UUID, warehouseID uuid.UUID) (*StockAlert, error)

	// FindAll finds alerts matching the filter, newest first
	FindAll(ctx context.Context, filter AlertFilter) ([]StockAlert, error)

	// Save creates or updates an alert
	Save(ctx context.Context, alert *StockAlert) error

	// Count counts alerts matching the filter
	Count(ctx context.Context, filter AlertFilter) (int64, error)

	// Summarize aggregates alert counts by severity
	Summarize(ctx context.Context) (*AlertSummary, error)
}
