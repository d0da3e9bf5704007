package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/fulfillment/stock-engine/internal/domain/catalog"
	"github.com/fulfillment/stock-engine/internal/domain/inventory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOrderStatusHandler(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, f *fixture) *inventory.Lot {
		t.Helper()
		product, err := catalog.NewProduct("SKU-1", "Widget")
		require.NoError(t, err)
		require.NoError(t, f.productRepo.Save(ctx, product))

		lot, err := inventory.NewLot(
			"LOT-1", product.ID, f.warehouseID,
			decimal.RequireFromString("10"), decimal.RequireFromString("2.00"),
			time.Now().Add(-24*time.Hour), nil,
		)
		require.NoError(t, err)
		require.NoError(t, f.lotRepo.Save(ctx, lot))
		return lot
	}

	t.Run("deducts stock for a shipped order", func(t *testing.T) {
		f := newFixture()
		lot := seed(t, f)
		handler := NewOrderStatusHandler(f.deductions, zap.NewNop())

		event := NewOrderStatusChangedEvent(OrderStatusEvent{
			OrderID: "ORD-1",
			Status:  OrderStatusShipped,
			Items: []OrderItem{
				{ItemID: "ITEM-1", SKU: "SKU-1", Quantity: decimal.RequireFromString("4")},
			},
		})
		require.NoError(t, handler.Handle(ctx, event))

		reloaded, err := f.lotRepo.FindByID(ctx, lot.ID)
		require.NoError(t, err)
		assert.True(t, reloaded.CurrentQuantity.Equal(decimal.RequireFromString("6")))

		movements, err := f.movementRepo.FindByOrder(ctx, "ORD-1")
		require.NoError(t, err)
		assert.Len(t, movements, 1)
	})

	t.Run("ignores unrelated event types", func(t *testing.T) {
		f := newFixture()
		lot := seed(t, f)
		handler := NewOrderStatusHandler(f.deductions, zap.NewNop())

		unrelated := inventory.NewStockReceivedEvent(lot)
		require.NoError(t, handler.Handle(ctx, unrelated))

		reloaded, err := f.lotRepo.FindByID(ctx, lot.ID)
		require.NoError(t, err)
		assert.True(t, reloaded.CurrentQuantity.Equal(decimal.RequireFromString("10")))
	})

	t.Run("subscribes to the order status type", func(t *testing.T) {
		f := newFixture()
		handler := NewOrderStatusHandler(f.deductions, zap.NewNop())
		assert.Equal(t, []string{EventTypeOrderStatusChanged}, handler.EventTypes())
	})

	t.Run("aggregate id is stable per order", func(t *testing.T) {
		payload := OrderStatusEvent{OrderID: "ORD-7", Status: OrderStatusShipped}
		first := NewOrderStatusChangedEvent(payload)
		second := NewOrderStatusChangedEvent(payload)
		assert.Equal(t, first.AggregateID(), second.AggregateID())
		assert.NotEqual(t, first.EventID(), second.EventID())
	})
}
