package inventory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applyMovement(t *testing.T, level *StockLevel, movementType MovementType, quantity, unitCost decimal.Decimal) {
	t.Helper()
	m, err := NewStockMovement(movementType, level.ProductID, level.WarehouseID, nil, quantity, unitCost, level.TotalQuantity, "")
	require.NoError(t, err)
	require.NoError(t, level.ApplyMovement(m))
}

func TestNewStockLevel(t *testing.T) {
	level, err := NewStockLevel(uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.True(t, level.TotalQuantity.IsZero())
	assert.True(t, level.AvailableQuantity.IsZero())
	assert.True(t, level.AverageCost.IsZero())
	assert.Nil(t, level.LastMovementAt)

	_, err = NewStockLevel(uuid.Nil, uuid.New())
	require.Error(t, err)
}

func TestStockLevelApplyMovement(t *testing.T) {
	t.Run("inbound sets quantity and average cost", func(t *testing.T) {
		level, err := NewStockLevel(uuid.New(), uuid.New())
		require.NoError(t, err)

		applyMovement(t, level, MovementIn, decimal.NewFromInt(100), decimal.NewFromInt(2))

		assert.True(t, level.TotalQuantity.Equal(decimal.NewFromInt(100)))
		assert.True(t, level.AvailableQuantity.Equal(decimal.NewFromInt(100)))
		assert.True(t, level.AverageCost.Equal(decimal.NewFromInt(2)))
		assert.True(t, level.TotalValue.Equal(decimal.NewFromInt(200)))
		assert.NotNil(t, level.LastMovementAt)
	})

	t.Run("weighted average cost across receipts", func(t *testing.T) {
		level, err := NewStockLevel(uuid.New(), uuid.New())
		require.NoError(t, err)

		applyMovement(t, level, MovementIn, decimal.NewFromInt(100), decimal.NewFromInt(2))
		applyMovement(t, level, MovementIn, decimal.NewFromInt(50), decimal.NewFromInt(5))

		// (2*100 + 5*50) / 150 = 3
		assert.True(t, level.AverageCost.Equal(decimal.NewFromInt(3)))
		assert.True(t, level.TotalValue.Equal(decimal.NewFromInt(450)))
	})

	t.Run("outbound keeps average cost", func(t *testing.T) {
		level, err := NewStockLevel(uuid.New(), uuid.New())
		require.NoError(t, err)

		applyMovement(t, level, MovementIn, decimal.NewFromInt(100), decimal.NewFromInt(3))
		applyMovement(t, level, MovementOut, decimal.NewFromInt(40), decimal.NewFromInt(3))

		assert.True(t, level.TotalQuantity.Equal(decimal.NewFromInt(60)))
		assert.True(t, level.AverageCost.Equal(decimal.NewFromInt(3)))
		assert.True(t, level.TotalValue.Equal(decimal.NewFromInt(180)))
	})

	t.Run("rejects movement driving total negative", func(t *testing.T) {
		level, err := NewStockLevel(uuid.New(), uuid.New())
		require.NoError(t, err)
		applyMovement(t, level, MovementIn, decimal.NewFromInt(10), decimal.NewFromInt(1))

		// Snapshot taken against a lot with more stock than the level
		// has accumulated; the aggregate still guards against negatives.
		m, err := NewStockMovement(MovementAdjustment, level.ProductID, level.WarehouseID, nil, decimal.NewFromInt(-11), decimal.Zero, decimal.NewFromInt(20), "auditor")
		require.NoError(t, err)
		require.ErrorIs(t, level.ApplyMovement(m), ErrInsufficientStock)
		assert.True(t, level.TotalQuantity.Equal(decimal.NewFromInt(10)))
	})

	t.Run("draining to zero resets average cost", func(t *testing.T) {
		level, err := NewStockLevel(uuid.New(), uuid.New())
		require.NoError(t, err)

		applyMovement(t, level, MovementIn, decimal.NewFromInt(10), decimal.NewFromInt(7))
		applyMovement(t, level, MovementOut, decimal.NewFromInt(10), decimal.NewFromInt(7))

		assert.True(t, level.TotalQuantity.IsZero())
		assert.True(t, level.AverageCost.IsZero())
		assert.True(t, level.TotalValue.IsZero())
	})
}

func TestStockLevelCounters(t *testing.T) {
	level, err := NewStockLevel(uuid.New(), uuid.New())
	require.NoError(t, err)

	level.AddShipped(decimal.NewFromInt(30))
	level.AddSold(decimal.NewFromInt(12))
	assert.True(t, level.TotalShipped.Equal(decimal.NewFromInt(30)))
	assert.True(t, level.TotalSold.Equal(decimal.NewFromInt(12)))

	level.SubtractShipped(decimal.NewFromInt(40))
	assert.True(t, level.TotalShipped.IsZero(), "shipped counter floors at zero")
}

func TestStockLevelReconcileFromLots(t *testing.T) {
	productID := uuid.New()
	warehouseID := uuid.New()

	newLot := func(number string, quantity, cost int64) Lot {
		lot, err := NewLot(number, productID, warehouseID, decimal.NewFromInt(quantity), decimal.NewFromInt(cost), time.Now().Add(-time.Hour), nil)
		require.NoError(t, err)
		return *lot
	}

	t.Run("rebuilds quantities and value from lots", func(t *testing.T) {
		level, err := NewStockLevel(productID, warehouseID)
		require.NoError(t, err)
		// Seed drift
		applyMovement(t, level, MovementIn, decimal.NewFromInt(999), decimal.NewFromInt(1))

		lots := []Lot{newLot("R-1", 40, 2), newLot("R-2", 60, 3)}
		require.NoError(t, lots[0].Reserve(decimal.NewFromInt(5)))

		level.ReconcileFromLots(lots)

		assert.True(t, level.TotalQuantity.Equal(decimal.NewFromInt(100)))
		assert.True(t, level.ReservedQuantity.Equal(decimal.NewFromInt(5)))
		assert.True(t, level.AvailableQuantity.Equal(decimal.NewFromInt(95)))
		// (40*2 + 60*3) / 100 = 2.6
		assert.True(t, level.AverageCost.Equal(decimal.RequireFromString("2.6")))
		assert.True(t, level.TotalValue.Equal(decimal.NewFromInt(260)))
	})

	t.Run("ignores inactive lots", func(t *testing.T) {
		level, err := NewStockLevel(productID, warehouseID)
		require.NoError(t, err)

		retired := newLot("R-3", 10, 1)
		require.NoError(t, retired.Deduct(decimal.NewFromInt(10)))
		require.NoError(t, retired.Deactivate())

		level.ReconcileFromLots([]Lot{retired, newLot("R-4", 7, 1)})
		assert.True(t, level.TotalQuantity.Equal(decimal.NewFromInt(7)))
	})

	t.Run("empty lot set zeroes the level", func(t *testing.T) {
		level, err := NewStockLevel(productID, warehouseID)
		require.NoError(t, err)
		applyMovement(t, level, MovementIn, decimal.NewFromInt(5), decimal.NewFromInt(1))

		level.ReconcileFromLots(nil)
		assert.True(t, level.TotalQuantity.IsZero())
		assert.True(t, level.AverageCost.IsZero())
	})

	t.Run("idempotent when already consistent", func(t *testing.T) {
		level, err := NewStockLevel(productID, warehouseID)
		require.NoError(t, err)
		lots := []Lot{newLot("R-5", 25, 4)}

		level.ReconcileFromLots(lots)
		total, value := level.TotalQuantity, level.TotalValue
		level.ReconcileFromLots(lots)

		assert.True(t, level.TotalQuantity.Equal(total))
		assert.True(t, level.TotalValue.Equal(value))
	})
}

func TestStockLevelThresholds(t *testing.T) {
	level, err := NewStockLevel(uuid.New(), uuid.New())
	require.NoError(t, err)
	applyMovement(t, level, MovementIn, decimal.NewFromInt(100), decimal.NewFromInt(1))
	applyMovement(t, level, MovementOut, decimal.NewFromInt(30), decimal.NewFromInt(1))

	assert.True(t, level.IsBelowThreshold(decimal.NewFromInt(80)), "70 is below 80")
	assert.False(t, level.IsBelowThreshold(decimal.NewFromInt(70)), "stock at the threshold is not below it")
	assert.False(t, level.IsBelowThreshold(decimal.NewFromInt(69)))
	assert.False(t, level.IsBelowThreshold(decimal.Zero), "zero threshold never triggers")
	assert.False(t, level.IsOutOfStock())

	applyMovement(t, level, MovementOut, decimal.NewFromInt(70), decimal.NewFromInt(1))
	assert.True(t, level.IsOutOfStock())
}
