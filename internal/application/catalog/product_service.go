package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/fulfillment/stock-engine/internal/domain/catalog"
	"github.com/fulfillment/stock-engine/internal/domain/inventory"
	"github.com/fulfillment/stock-engine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductService handles product catalog operations
type ProductService struct {
	productRepo catalog.ProductRepository
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// ResolveOrCreateProduct returns the product for the given SKU, creating
// it on first sight. Registration is implicit: stock can arrive for a
// SKU the catalog has never seen, and the engine starts tracking it
// immediately. The operation is idempotent; a concurrent create loses
// the unique-index race and falls back to reading the winner's row.
func (s *ProductService) ResolveOrCreateProduct(ctx context.Context, sku, name string) (*catalog.Product, error) {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if sku == "" {
		return nil, inventory.ErrMissingSKU
	}

	product, err := s.productRepo.FindBySKU(ctx, sku)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	product, err = catalog.NewProduct(sku, name)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return s.productRepo.FindBySKU(ctx, sku)
		}
		return nil, err
	}
	return product, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

// GetBySKU retrieves a product by SKU
func (s *ProductService) GetBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	product, err := s.productRepo.FindBySKU(ctx, strings.ToUpper(strings.TrimSpace(sku)))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, inventory.ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

// List retrieves products matching the filter
func (s *ProductService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[catalog.Product], error) {
	products, err := s.productRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.productRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	result := shared.NewPaginated(products, total, filter.Page, filter.PageSize)
	return &result, nil
}

// UpdateDetails updates a product's descriptive fields
func (s *ProductService) UpdateDetails(ctx context.Context, id uuid.UUID, name, category, unit string) (*catalog.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := product.Update(name, category, unit); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// SetThresholds configures the low-stock threshold and reorder point
func (s *ProductService) SetThresholds(ctx context.Context, id uuid.UUID, minThreshold, reorderPoint decimal.Decimal) (*catalog.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := product.SetThresholds(minThreshold, reorderPoint); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Deactivate marks a product inactive
func (s *ProductService) Deactivate(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := product.Deactivate(); err != nil {
		return err
	}
	return s.productRepo.Save(ctx, product)
}
