package event

import (
	"context"

	"github.com/fulfillment/stock-engine/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditHandler logs every domain event crossing the bus. It subscribes
// as a wildcard handler and gives operators a flat trail of stock
// activity without touching the movement ledger.
type AuditHandler struct {
	logger *zap.Logger
}

// NewAuditHandler creates a new audit logging handler
func NewAuditHandler(logger *zap.Logger) *AuditHandler {
	return &AuditHandler{logger: logger}
}

// Handle logs the event
func (h *AuditHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.logger.Info("domain event",
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	)
	return nil
}

// EventTypes returns an empty slice so the handler receives all events
func (h *AuditHandler) EventTypes() []string {
	return nil
}

// Ensure AuditHandler implements EventHandler
var _ shared.EventHandler = (*AuditHandler)(nil)
