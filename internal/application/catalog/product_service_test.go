package catalog

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/fulfillment/stock-engine/internal/domain/catalog"
	"github.com/fulfillment/stock-engine/internal/domain/inventory"
	"github.com/fulfillment/stock-engine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memProductRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]catalog.Product
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{items: make(map[uuid.UUID]catalog.Product)}
}

func (r *memProductRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.items[id]; ok {
		return &p, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memProductRepo) FindBySKU(_ context.Context, sku string) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.items {
		if p.SKU == strings.ToUpper(sku) {
			found := p
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memProductRepo) FindAll(_ context.Context, _ shared.Filter) ([]catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]catalog.Product, 0, len(r.items))
	for _, p := range r.items {
		result = append(result, p)
	}
	return result, nil
}

func (r *memProductRepo) Save(_ context.Context, product *catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.items {
		if p.SKU == product.SKU && id != product.ID {
			return shared.ErrAlreadyExists
		}
	}
	r.items[product.ID] = *product
	return nil
}

func (r *memProductRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.items)), nil
}

func (r *memProductRepo) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	_, err := r.FindBySKU(ctx, sku)
	return err == nil, nil
}

func TestResolveOrCreateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("creates on first sight", func(t *testing.T) {
		svc := NewProductService(newMemProductRepo())
		product, err := svc.ResolveOrCreateProduct(ctx, "sku-1", "Widget")
		require.NoError(t, err)
		assert.Equal(t, "SKU-1", product.SKU)
		assert.Equal(t, "Widget", product.Name)
	})

	t.Run("returns the existing product afterwards", func(t *testing.T) {
		svc := NewProductService(newMemProductRepo())
		first, err := svc.ResolveOrCreateProduct(ctx, "SKU-1", "Widget")
		require.NoError(t, err)
		second, err := svc.ResolveOrCreateProduct(ctx, "SKU-1", "Renamed")
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "Widget", second.Name, "resolution never renames")
	})

	t.Run("name defaults to SKU when omitted", func(t *testing.T) {
		svc := NewProductService(newMemProductRepo())
		product, err := svc.ResolveOrCreateProduct(ctx, "SKU-2", "")
		require.NoError(t, err)
		assert.Equal(t, "SKU-2", product.Name)
	})

	t.Run("empty SKU is rejected", func(t *testing.T) {
		svc := NewProductService(newMemProductRepo())
		_, err := svc.ResolveOrCreateProduct(ctx, "  ", "x")
		require.ErrorIs(t, err, inventory.ErrMissingSKU)
	})

	t.Run("losing the unique-index race falls back to the winner", func(t *testing.T) {
		// Simulate the race: another writer inserts the SKU between our
		// read and our save
		winner, err := catalog.NewProduct("SKU-3", "Winner")
		require.NoError(t, err)

		raced := &racingRepo{memProductRepo: newMemProductRepo(), winner: winner}
		svc := NewProductService(raced)

		product, err := svc.ResolveOrCreateProduct(ctx, "SKU-3", "Loser")
		require.NoError(t, err)
		assert.Equal(t, winner.ID, product.ID)
	})
}

// racingRepo injects a concurrent insert between FindBySKU and Save
type racingRepo struct {
	*memProductRepo
	winner *catalog.Product
	once   sync.Once
}

func (r *racingRepo) Save(ctx context.Context, product *catalog.Product) error {
	r.once.Do(func() {
		_ = r.memProductRepo.Save(ctx, r.winner)
	})
	return r.memProductRepo.Save(ctx, product)
}

func TestSetThresholds(t *testing.T) {
	ctx := context.Background()
	svc := NewProductService(newMemProductRepo())

	product, err := svc.ResolveOrCreateProduct(ctx, "SKU-T", "")
	require.NoError(t, err)

	updated, err := svc.SetThresholds(ctx, product.ID, decimal.NewFromInt(80), decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, updated.MinThreshold.Equal(decimal.NewFromInt(80)))
	assert.True(t, updated.HasThreshold())

	_, err = svc.SetThresholds(ctx, product.ID, decimal.NewFromInt(-1), decimal.Zero)
	require.Error(t, err)
}

func TestDeactivateProduct(t *testing.T) {
	ctx := context.Background()
	svc := NewProductService(newMemProductRepo())

	product, err := svc.ResolveOrCreateProduct(ctx, "SKU-D", "")
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, product.ID))
	require.Error(t, svc.Deactivate(ctx, product.ID), "already inactive")
}
