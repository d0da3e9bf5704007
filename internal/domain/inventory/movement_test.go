package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStockMovement(t *testing.T) {
	productID := uuid.New()
	warehouseID := uuid.New()
	lotID := uuid.New()

	t.Run("IN movement increases the snapshot", func(t *testing.T) {
		m, err := NewStockMovement(MovementIn, productID, warehouseID, &lotID, decimal.NewFromInt(100), decimal.NewFromFloat(2.5), decimal.Zero, "alice")
		require.NoError(t, err)

		assert.True(t, m.QuantityBefore.IsZero())
		assert.True(t, m.QuantityAfter.Equal(decimal.NewFromInt(100)))
		assert.True(t, m.SignedQuantity().Equal(decimal.NewFromInt(100)))
		assert.True(t, m.TotalCost.Equal(decimal.NewFromInt(250)))
		assert.Equal(t, "alice", m.Actor)
		assert.False(t, m.OccurredAt.IsZero())
	})

	t.Run("OUT movement decreases the snapshot", func(t *testing.T) {
		m, err := NewStockMovement(MovementOut, productID, warehouseID, &lotID, decimal.NewFromInt(30), decimal.NewFromInt(2), decimal.NewFromInt(100), "")
		require.NoError(t, err)

		assert.True(t, m.QuantityAfter.Equal(decimal.NewFromInt(70)))
		assert.True(t, m.SignedQuantity().Equal(decimal.NewFromInt(-30)))
		assert.Equal(t, SystemActor, m.Actor)
	})

	t.Run("RETURN movement increases the snapshot", func(t *testing.T) {
		m, err := NewStockMovement(MovementReturn, productID, warehouseID, &lotID, decimal.NewFromInt(10), decimal.Zero, decimal.NewFromInt(5), "system")
		require.NoError(t, err)
		assert.True(t, m.QuantityAfter.Equal(decimal.NewFromInt(15)))
	})

	t.Run("ADJUSTMENT carries a signed delta", func(t *testing.T) {
		down, err := NewStockMovement(MovementAdjustment, productID, warehouseID, &lotID, decimal.NewFromInt(-4), decimal.Zero, decimal.NewFromInt(10), "auditor")
		require.NoError(t, err)
		assert.True(t, down.QuantityAfter.Equal(decimal.NewFromInt(6)))
		assert.True(t, down.SignedQuantity().Equal(decimal.NewFromInt(-4)))

		up, err := NewStockMovement(MovementAdjustment, productID, warehouseID, &lotID, decimal.NewFromInt(4), decimal.Zero, decimal.NewFromInt(10), "auditor")
		require.NoError(t, err)
		assert.True(t, up.QuantityAfter.Equal(decimal.NewFromInt(14)))
	})

	t.Run("rejects movement driving the snapshot negative", func(t *testing.T) {
		_, err := NewStockMovement(MovementOut, productID, warehouseID, &lotID, decimal.NewFromInt(11), decimal.Zero, decimal.NewFromInt(10), "")
		require.ErrorIs(t, err, ErrInsufficientStock)
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		_, err := NewStockMovement(MovementIn, productID, warehouseID, nil, decimal.Zero, decimal.Zero, decimal.Zero, "")
		require.Error(t, err)
	})

	t.Run("rejects negative quantity outside ADJUSTMENT", func(t *testing.T) {
		_, err := NewStockMovement(MovementOut, productID, warehouseID, nil, decimal.NewFromInt(-3), decimal.Zero, decimal.NewFromInt(10), "")
		require.Error(t, err)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := NewStockMovement("TELEPORT", productID, warehouseID, nil, decimal.NewFromInt(1), decimal.Zero, decimal.Zero, "")
		require.Error(t, err)
	})
}

func TestMovementConservation(t *testing.T) {
	// Chaining movements over one lot: each entry's before must equal
	// the previous entry's after.
	productID := uuid.New()
	warehouseID := uuid.New()
	lotID := uuid.New()

	balance := decimal.Zero
	steps := []struct {
		movementType MovementType
		quantity     decimal.Decimal
	}{
		{MovementIn, decimal.NewFromInt(100)},
		{MovementOut, decimal.NewFromInt(30)},
		{MovementReturn, decimal.NewFromInt(10)},
		{MovementAdjustment, decimal.NewFromInt(-5)},
		{MovementTransfer, decimal.NewFromInt(25)},
	}

	for _, step := range steps {
		m, err := NewStockMovement(step.movementType, productID, warehouseID, &lotID, step.quantity, decimal.Zero, balance, "")
		require.NoError(t, err)
		assert.True(t, m.QuantityBefore.Equal(balance))
		assert.True(t, m.QuantityAfter.Equal(balance.Add(m.SignedQuantity())))
		balance = m.QuantityAfter
	}

	assert.True(t, balance.Equal(decimal.NewFromInt(50)))
}

func TestMovementBuilders(t *testing.T) {
	m, err := NewStockMovement(MovementOut, uuid.New(), uuid.New(), nil, decimal.NewFromInt(1), decimal.Zero, decimal.NewFromInt(1), "")
	require.NoError(t, err)

	m.WithOrder("ORD-42").WithReference("SHIP-7").WithReason("order shipped")
	assert.Equal(t, "ORD-42", m.OrderID)
	assert.Equal(t, "SHIP-7", m.Reference)
	assert.Equal(t, "order shipped", m.Reason)
}
