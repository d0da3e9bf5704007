package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fulfillment/stock-engine/internal/domain/inventory"
	"github.com/fulfillment/stock-engine/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLotRepository implements LotRepository using GORM
type GormLotRepository struct {
	db *gorm.DB
}

// NewGormLotRepository creates a new GormLotRepository
func NewGormLotRepository(db *gorm.DB) *GormLotRepository {
	return &GormLotRepository{db: db}
}

// FindByID finds a lot by its ID
func (r *GormLotRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Lot, error) {
	var lot inventory.Lot
	if err := r.db.WithContext(ctx).First(&lot, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &lot, nil
}

// FindByNumber finds a lot by its unique lot number
func (r *GormLotRepository) FindByNumber(ctx context.Context, lotNumber string) (*inventory.Lot, error) {
	var lot inventory.Lot
	if err := r.db.WithContext(ctx).First(&lot, "lot_number = ?", lotNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &lot, nil
}

// FindAll finds lots matching the filter
func (r *GormLotRepository) FindAll(ctx context.Context, filter inventory.LotFilter) ([]inventory.Lot, error) {
	var lots []inventory.Lot
	query := r.applyFilter(r.db.WithContext(ctx).Model(&inventory.Lot{}), filter)
	if err := query.Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// FindAllocatable finds the active, normal-quality lots with stock for a
// product in a warehouse. Ordering is left to the allocation planner.
func (r *GormLotRepository) FindAllocatable(ctx context.Context, productID, warehouseID uuid.UUID) ([]inventory.Lot, error) {
	var lots []inventory.Lot
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		Where("active = TRUE AND quality_status = ? AND current_quantity > 0", inventory.QualityNormal).
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// FindMostRecentActive finds the most recently created active lot for a
// product in a warehouse
func (r *GormLotRepository) FindMostRecentActive(ctx context.Context, productID, warehouseID uuid.UUID) (*inventory.Lot, error) {
	var lot inventory.Lot
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ? AND active = TRUE", productID, warehouseID).
		Order("created_at DESC").
		First(&lot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &lot, nil
}

// FindExpiringBefore finds active lots with stock whose expiry date falls
// before the cutoff
func (r *GormLotRepository) FindExpiringBefore(ctx context.Context, cutoff time.Time) ([]inventory.Lot, error) {
	var lots []inventory.Lot
	if err := r.db.WithContext(ctx).
		Where("active = TRUE AND current_quantity > 0").
		Where("expiry_date IS NOT NULL AND expiry_date <= ?", cutoff).
		Order("expiry_date ASC").
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// ExistsByNumber checks whether a lot number is already taken
func (r *GormLotRepository) ExistsByNumber(ctx context.Context, lotNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&inventory.Lot{}).
		Where("lot_number = ?", lotNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a lot without a version guard
func (r *GormLotRepository) Save(ctx context.Context, lot *inventory.Lot) error {
	err := r.db.WithContext(ctx).Save(lot).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrAlreadyExists
	}
	return err
}

// SaveWithLock updates a lot guarded by its optimistic version
func (r *GormLotRepository) SaveWithLock(ctx context.Context, lot *inventory.Lot) error {
	result := r.db.WithContext(ctx).
		Model(lot).
		Where("id = ? AND version = ?", lot.ID, lot.Version-1).
		Updates(map[string]interface{}{
			"current_quantity":  lot.CurrentQuantity,
			"reserved_quantity": lot.ReservedQuantity,
			"expiry_date":       lot.ExpiryDate,
			"unit_cost":         lot.UnitCost,
			"total_cost":        lot.TotalCost,
			"quality_status":    lot.QualityStatus,
			"notes":             lot.Notes,
			"active":            lot.Active,
			"version":           lot.Version,
			"updated_at":        lot.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Count counts lots matching the filter
func (r *GormLotRepository) Count(ctx context.Context, filter inventory.LotFilter) (int64, error) {
	var count int64
	filter.Page = 0
	filter.PageSize = 0
	query := r.applyFilter(r.db.WithContext(ctx).Model(&inventory.Lot{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormLotRepository) applyFilter(query *gorm.DB, filter inventory.LotFilter) *gorm.DB {
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}
	if filter.ExpiringBefore != nil {
		query = query.Where("expiry_date IS NOT NULL AND expiry_date <= ?", *filter.ExpiringBefore)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(lot_number) LIKE ? OR LOWER(supplier_ref) LIKE ? OR LOWER(notes) LIKE ?", pattern, pattern, pattern)
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		field := ValidateSortField(filter.OrderBy, LotSortFields, "created_at")
		query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
	} else {
		// FEFO order by default, lots without expiry last
		query = query.Order("COALESCE(expiry_date, '9999-12-31') ASC, production_date ASC, created_at ASC")
	}

	return query
}

// Ensure GormLotRepository implements LotRepository
var _ inventory.LotRepository = (*GormLotRepository)(nil)
