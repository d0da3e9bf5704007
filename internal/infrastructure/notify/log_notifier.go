// Package notify delivers stock alerts to outbound channels.
package notify

import (
	"context"

	appinv "github.com/fulfillment/stock-engine/internal/application/inventory"
	"github.com/fulfillment/stock-engine/internal/domain/inventory"
	"go.uber.org/zap"
)

// LogNotifier writes alerts to the structured log. It is the default
// notifier; deployments with a paging or chat integration replace it.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new log-backed alert notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify writes the alert to the log at a level matching its severity
func (n *LogNotifier) Notify(_ context.Context, alert *inventory.StockAlert) error {
	fields := []zap.Field{
		zap.String("alert_id", alert.ID.String()),
		zap.String("alert_type", string(alert.AlertType)),
		zap.String("severity", string(alert.Severity)),
		zap.String("warehouse_id", alert.WarehouseID.String()),
		zap.String("sku", alert.SKU),
		zap.String("current_quantity", alert.CurrentQuantity.String()),
		zap.String("threshold", alert.Threshold.String()),
		zap.String("message", alert.Message),
	}
	if alert.ProductID != nil {
		fields = append(fields, zap.String("product_id", alert.ProductID.String()))
	}
	if alert.LotID != nil {
		fields = append(fields, zap.String("lot_id", alert.LotID.String()))
	}

	switch alert.Severity {
	case inventory.SeverityCritical:
		n.logger.Error("stock alert raised", fields...)
	case inventory.SeverityWarning:
		n.logger.Warn("stock alert raised", fields...)
	default:
		n.logger.Info("stock alert raised", fields...)
	}
	return nil
}

// Ensure LogNotifier implements AlertNotifier
var _ appinv.AlertNotifier = (*LogNotifier)(nil)
