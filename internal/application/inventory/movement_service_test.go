package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/fulfillment/stock-engine/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovementService(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()

	seed := func(t *testing.T, f *fixture) {
		t.Helper()
		in, err := inventory.NewStockMovement(
			inventory.MovementIn, productID, f.warehouseID, nil,
			decimal.RequireFromString("50"), decimal.RequireFromString("2.00"),
			decimal.Zero, "receiver",
		)
		require.NoError(t, err)
		require.NoError(t, f.movementRepo.Create(ctx, in))

		out, err := inventory.NewStockMovement(
			inventory.MovementOut, productID, f.warehouseID, nil,
			decimal.RequireFromString("20"), decimal.RequireFromString("2.00"),
			decimal.RequireFromString("50"), "picker",
		)
		require.NoError(t, err)
		require.NoError(t, f.movementRepo.Create(ctx, out.WithOrder("ORD-55")))
	}

	t.Run("get by id", func(t *testing.T) {
		f := newFixture()
		seed(t, f)
		all, err := f.movementRepo.FindAll(ctx, inventory.MovementFilter{})
		require.NoError(t, err)
		require.NotEmpty(t, all)

		got, err := f.movements.GetByID(ctx, all[0].ID)
		require.NoError(t, err)
		assert.Equal(t, all[0].ID, got.ID)
	})

	t.Run("get by id not found", func(t *testing.T) {
		f := newFixture()
		_, err := f.movements.GetByID(ctx, uuid.New())
		require.Error(t, err)
	})

	t.Run("list filters by type", func(t *testing.T) {
		f := newFixture()
		seed(t, f)
		mt := inventory.MovementOut
		page, err := f.movements.List(ctx, inventory.MovementFilter{MovementType: &mt})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, int64(1), page.Total)
		assert.Equal(t, string(inventory.MovementOut), string(page.Items[0].MovementType))
	})

	t.Run("order history", func(t *testing.T) {
		f := newFixture()
		seed(t, f)
		trail, err := f.movements.HistoryForOrder(ctx, "ORD-55")
		require.NoError(t, err)
		require.Len(t, trail, 1)
		assert.Equal(t, "ORD-55", trail[0].OrderID)
	})

	t.Run("summary groups by type", func(t *testing.T) {
		f := newFixture()
		seed(t, f)
		summaries, err := f.movements.Summarize(ctx, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
		require.NoError(t, err)

		byType := make(map[inventory.MovementType]inventory.MovementSummary)
		for _, s := range summaries {
			byType[s.MovementType] = s
		}
		assert.Equal(t, int64(1), byType[inventory.MovementIn].Count)
		assert.True(t, byType[inventory.MovementIn].TotalQuantity.Equal(decimal.RequireFromString("50")))
		assert.Equal(t, int64(1), byType[inventory.MovementOut].Count)
	})
}
