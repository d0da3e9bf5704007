package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// LotSortFields contains allowed sort fields for lots
var LotSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"updated_at":       true,
	"lot_number":       true,
	"product_id":       true,
	"warehouse_id":     true,
	"current_quantity": true,
	"production_date":  true,
	"expiry_date":      true,
	"quality_status":   true,
}

// MovementSortFields contains allowed sort fields for stock movements
var MovementSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"movement_type": true,
	"product_id":    true,
	"warehouse_id":  true,
	"quantity":      true,
	"order_id":      true,
	"occurred_at":   true,
}

// StockLevelSortFields contains allowed sort fields for stock levels
var StockLevelSortFields = map[string]bool{
	"id":                 true,
	"created_at":         true,
	"updated_at":         true,
	"product_id":         true,
	"warehouse_id":       true,
	"total_quantity":     true,
	"available_quantity": true,
	"total_value":        true,
	"last_movement_at":   true,
}

// AlertSortFields contains allowed sort fields for stock alerts
var AlertSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"alert_type": true,
	"severity":   true,
	"resolved":   true,
}

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"sku":        true,
	"name":       true,
	"category":   true,
}

// WarehouseSortFields contains allowed sort fields for warehouses
var WarehouseSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"code":       true,
	"name":       true,
	"is_primary": true,
}
