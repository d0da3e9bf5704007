package persistence

import (
	"context"
	"errors"

	"github.com/fulfillment/stock-engine/internal/domain/inventory"
	"github.com/fulfillment/stock-engine/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAlertRepository implements AlertRepository using GORM
type GormAlertRepository struct {
	db *gorm.DB
}

// NewGormAlertRepository creates a new GormAlertRepository
func NewGormAlertRepository(db *gorm.DB) *GormAlertRepository {
	return &GormAlertRepository{db: db}
}

// FindByID finds an alert by its ID
func (r *GormAlertRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockAlert, error) {
	var alert inventory.StockAlert
	if err := r.db.WithContext(ctx).First(&alert, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &alert, nil
}

// FindOpen finds the single unresolved alert for a product, warehouse
// and type. productID is nil for MISSING_SKU alerts.
func (r *GormAlertRepository) FindOpen(ctx context.Context, alertType inventory.AlertType, productID *uuid.UUID, warehouseID uuid.UUID) (*inventory.StockAlert, error) {
	query := r.db.WithContext(ctx).
		Where("alert_type = ? AND warehouse_id = ? AND resolved = FALSE", alertType, warehouseID)
	if productID != nil {
		query = query.Where("product_id = ?", *productID)
	} else {
		query = query.Where("product_id IS NULL")
	}

	var alert inventory.StockAlert
	if err := query.Order("created_at DESC").First(&alert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &alert, nil
}

// FindAll finds alerts matching the filter, newest first
func (r *GormAlertRepository) FindAll(ctx context.Context, filter inventory.AlertFilter) ([]inventory.StockAlert, error) {
	var alerts []inventory.StockAlert
	query := r.applyFilter(r.db.WithContext(ctx).Model(&inventory.StockAlert{}), filter)
	if err := query.Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// Save creates or updates an alert
func (r *GormAlertRepository) Save(ctx context.Context, alert *inventory.StockAlert) error {
	return r.db.WithContext(ctx).Save(alert).Error
}

// Count counts alerts matching the filter
func (r *GormAlertRepository) Count(ctx context.Context, filter inventory.AlertFilter) (int64, error) {
	var count int64
	filter.Page = 0
	filter.PageSize = 0
	query := r.applyFilter(r.db.WithContext(ctx).Model(&inventory.StockAlert{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Summarize aggregates alert counts by severity
func (r *GormAlertRepository) Summarize(ctx context.Context) (*inventory.AlertSummary, error) {
	type row struct {
		Severity string
		Resolved bool
		Count    int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&inventory.StockAlert{}).
		Select("severity, resolved, COUNT(*) as count").
		Group("severity, resolved").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	summary := &inventory.AlertSummary{}
	for _, row := range rows {
		summary.Total += row.Count
		if !row.Resolved {
			summary.Unresolved += row.Count
		}
		switch inventory.AlertSeverity(row.Severity) {
		case inventory.SeverityCritical:
			summary.Critical += row.Count
		case inventory.SeverityWarning:
			summary.Warning += row.Count
		case inventory.SeverityInfo:
			summary.Info += row.Count
		}
	}
	return summary, nil
}

// applyFilter applies filter options to the query
func (r *GormAlertRepository) applyFilter(query *gorm.DB, filter inventory.AlertFilter) *gorm.DB {
	if filter.AlertType != nil {
		query = query.Where("alert_type = ?", *filter.AlertType)
	}
	if filter.Severity != nil {
		query = query.Where("severity = ?", *filter.Severity)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.Resolved != nil {
		query = query.Where("resolved = ?", *filter.Resolved)
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		field := ValidateSortField(filter.OrderBy, AlertSortFields, "created_at")
		query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// Ensure GormAlertRepository implements AlertRepository
var _ inventory.AlertRepository = (*GormAlertRepository)(nil)
