package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/fulfillment/stock-engine/internal/domain/inventory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiveStock(t *testing.T) {
	ctx := context.Background()

	t.Run("creates lot, ledger entry and stock level together", func(t *testing.T) {
		f := newFixture()
		lot, err := f.lots.ReceiveStock(ctx, ReceiveStockRequest{
			SKU:       "widget",
			LotNumber: "LOT-R1",
			Quantity:  decimal.NewFromInt(100),
			UnitCost:  decimal.NewFromFloat(2.5),
		})
		require.NoError(t, err)
		assert.True(t, lot.CurrentQuantity.Equal(decimal.NewFromInt(100)))

		product, err := f.products.GetBySKU(ctx, "WIDGET")
		require.NoError(t, err)

		level, err := f.levels.Get(ctx, product.ID, f.warehouseID)
		require.NoError(t, err)
		assert.True(t, level.TotalQuantity.Equal(decimal.NewFromInt(100)))
		assert.True(t, level.AverageCost.Equal(decimal.NewFromFloat(2.5)))

		movements, err := f.movements.List(ctx, inventory.MovementFilter{ProductID: &product.ID})
		require.NoError(t, err)
		require.Len(t, movements.Items, 1)
		assert.Equal(t, inventory.MovementIn, movements.Items[0].MovementType)
		assert.True(t, movements.Items[0].QuantityBefore.IsZero())
		assert.True(t, movements.Items[0].QuantityAfter.Equal(decimal.NewFromInt(100)))
	})

	t.Run("registers unknown SKU implicitly", func(t *testing.T) {
		f := newFixture()
		_, err := f.lots.ReceiveStock(ctx, ReceiveStockRequest{
			SKU:       "BRAND-NEW",
			LotNumber: "LOT-R2",
			Quantity:  decimal.NewFromInt(5),
		})
		require.NoError(t, err)

		product, err := f.products.GetBySKU(ctx, "BRAND-NEW")
		require.NoError(t, err)
		assert.Equal(t, "BRAND-NEW", product.Name, "name defaults to the SKU")
	})

	t.Run("rejects duplicate lot numbers", func(t *testing.T) {
		f := newFixture()
		req := ReceiveStockRequest{SKU: "WIDGET", LotNumber: "LOT-R3", Quantity: decimal.NewFromInt(5)}
		_, err := f.lots.ReceiveStock(ctx, req)
		require.NoError(t, err)

		_, err = f.lots.ReceiveStock(ctx, req)
		require.ErrorIs(t, err, inventory.ErrLotNumberConflict)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		f := newFixture()
		_, err := f.lots.ReceiveStock(ctx, ReceiveStockRequest{
			SKU:       "WIDGET",
			LotNumber: "LOT-R4",
			Quantity:  decimal.NewFromInt(-3),
		})
		require.Error(t, err)
	})

	t.Run("second receipt shifts the weighted average cost", func(t *testing.T) {
		f := newFixture()
		_, err := f.lots.ReceiveStock(ctx, ReceiveStockRequest{
			SKU: "WIDGET", LotNumber: "LOT-R5", Quantity: decimal.NewFromInt(100), UnitCost: decimal.NewFromInt(2),
		})
		require.NoError(t, err)
		_, err = f.lots.ReceiveStock(ctx, ReceiveStockRequest{
			SKU: "WIDGET", LotNumber: "LOT-R6", Quantity: decimal.NewFromInt(50), UnitCost: decimal.NewFromInt(5),
		})
		require.NoError(t, err)

		product, err := f.products.GetBySKU(ctx, "WIDGET")
		require.NoError(t, err)
		level, err := f.levels.Get(ctx, product.ID, f.warehouseID)
		require.NoError(t, err)
		assert.True(t, level.AverageCost.Equal(decimal.NewFromInt(3)))
	})

	t.Run("publishes a stock received event", func(t *testing.T) {
		f := newFixture()
		_, err := f.lots.ReceiveStock(ctx, ReceiveStockRequest{
			SKU: "WIDGET", LotNumber: "LOT-R7", Quantity: decimal.NewFromInt(5),
		})
		require.NoError(t, err)
		assert.Len(t, f.publisher.GetEventsByType(inventory.EventTypeStockReceived), 1)
	})
}

func TestAdjustStock(t *testing.T) {
	ctx := context.Background()

	t.Run("negative delta shrinks lot and level", func(t *testing.T) {
		f := newFixture()
		receiveLot(t, f, "WIDGET", "LOT-ADJ", 50, nil)

		movement, err := f.lots.AdjustStock(ctx, AdjustStockRequest{
			LotNumber: "LOT-ADJ",
			Delta:     decimal.NewFromInt(-8),
			Reason:    "cycle count shortage",
			Actor:     "auditor",
		})
		require.NoError(t, err)
		assert.Equal(t, inventory.MovementAdjustment, movement.MovementType)
		assert.True(t, movement.QuantityAfter.Equal(decimal.NewFromInt(42)))

		lot, err := f.lots.GetByNumber(ctx, "LOT-ADJ")
		require.NoError(t, err)
		assert.True(t, lot.CurrentQuantity.Equal(decimal.NewFromInt(42)))
	})

	t.Run("cannot adjust below zero", func(t *testing.T) {
		f := newFixture()
		receiveLot(t, f, "WIDGET", "LOT-ADJ2", 5, nil)

		_, err := f.lots.AdjustStock(ctx, AdjustStockRequest{
			LotNumber: "LOT-ADJ2",
			Delta:     decimal.NewFromInt(-6),
			Reason:    "typo",
		})
		require.ErrorIs(t, err, inventory.ErrInsufficientStock)
	})

	t.Run("unknown lot", func(t *testing.T) {
		f := newFixture()
		_, err := f.lots.AdjustStock(ctx, AdjustStockRequest{
			LotNumber: "NOPE",
			Delta:     decimal.NewFromInt(1),
			Reason:    "found extra unit",
		})
		require.ErrorIs(t, err, inventory.ErrLotNotFound)
	})

	t.Run("requires a reason", func(t *testing.T) {
		f := newFixture()
		_, err := f.lots.AdjustStock(ctx, AdjustStockRequest{
			LotNumber: "LOT-ADJ3",
			Delta:     decimal.NewFromInt(1),
		})
		require.Error(t, err)
	})
}

func TestPreviewAllocation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	receiveLot(t, f, "WIDGET", "LOT-P1", 20, days(3))
	receiveLot(t, f, "WIDGET", "LOT-P2", 50, days(40))

	product, err := f.products.GetBySKU(ctx, "WIDGET")
	require.NoError(t, err)

	plan, err := f.lots.PreviewAllocation(ctx, product.ID, f.warehouseID, decimal.NewFromInt(30))
	require.NoError(t, err)
	require.True(t, plan.Fulfillable)
	require.Len(t, plan.Deductions, 2)
	assert.Equal(t, "LOT-P1", plan.Deductions[0].LotNumber)

	t.Run("preview does not touch lots", func(t *testing.T) {
		lot, err := f.lots.GetByNumber(ctx, "LOT-P1")
		require.NoError(t, err)
		assert.True(t, lot.CurrentQuantity.Equal(decimal.NewFromInt(20)))
	})
}

func TestSetQualityStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	receiveLot(t, f, "WIDGET", "LOT-Q", 10, nil)

	lot, err := f.lots.SetQualityStatus(ctx, "LOT-Q", inventory.QualityQuarantine)
	require.NoError(t, err)
	assert.Equal(t, inventory.QualityQuarantine, lot.QualityStatus)

	product, err := f.products.GetBySKU(ctx, "WIDGET")
	require.NoError(t, err)
	plan, err := f.lots.PreviewAllocation(ctx, product.ID, f.warehouseID, decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.False(t, plan.Fulfillable, "quarantined stock is not allocatable")
}

func TestUpdateLot(t *testing.T) {
	ctx := context.Background()

	t.Run("edits expiry, cost and notes and recomputes total cost", func(t *testing.T) {
		f := newFixture()
		receiveLot(t, f, "WIDGET", "LOT-U1", 10, nil)

		expiry := time.Now().Add(60 * 24 * time.Hour)
		cost := decimal.NewFromInt(4)
		notes := "relabelled after supplier recall"
		lot, err := f.lots.UpdateLot(ctx, UpdateLotRequest{
			LotNumber:  "LOT-U1",
			ExpiryDate: &expiry,
			UnitCost:   &cost,
			Notes:      &notes,
		})
		require.NoError(t, err)

		require.NotNil(t, lot.ExpiryDate)
		assert.True(t, lot.ExpiryDate.Equal(expiry))
		assert.True(t, lot.UnitCost.Equal(cost))
		assert.True(t, lot.TotalCost.Equal(decimal.NewFromInt(40)))
		assert.Equal(t, notes, lot.Notes)

		t.Run("edits persist through reload", func(t *testing.T) {
			again, err := f.lots.GetByNumber(ctx, "LOT-U1")
			require.NoError(t, err)
			assert.True(t, again.TotalCost.Equal(decimal.NewFromInt(40)))
			assert.Equal(t, notes, again.Notes)
		})
	})

	t.Run("unknown lot", func(t *testing.T) {
		f := newFixture()
		notes := "x"
		_, err := f.lots.UpdateLot(ctx, UpdateLotRequest{LotNumber: "LOT-GHOST", Notes: &notes})
		assert.ErrorIs(t, err, inventory.ErrLotNotFound)
	})

	t.Run("rejects expiry before production", func(t *testing.T) {
		f := newFixture()
		receiveLot(t, f, "WIDGET", "LOT-U2", 10, nil)

		expiry := time.Now().Add(-48 * time.Hour)
		_, err := f.lots.UpdateLot(ctx, UpdateLotRequest{LotNumber: "LOT-U2", ExpiryDate: &expiry})
		require.Error(t, err)
	})
}
