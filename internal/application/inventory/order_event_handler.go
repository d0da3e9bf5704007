package inventory

import (
	"context"

	"github.com/fulfillment/stock-engine/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventTypeOrderStatusChanged is the bus event type published by the
// order subsystem when an order or its carrier tracking changes state.
const EventTypeOrderStatusChanged = "order.status.changed"

// OrderStatusChangedEvent wraps the inbound order notification so it can
// travel over the domain event bus.
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	Payload OrderStatusEvent `json:"payload"`
}

// NewOrderStatusChangedEvent creates an order status changed event.
// The aggregate ID is derived deterministically from the order ID so
// repeated notifications for one order share it.
func NewOrderStatusChangedEvent(payload OrderStatusEvent) *OrderStatusChangedEvent {
	aggregateID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(payload.OrderID))
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, "Order", aggregateID),
		Payload:         payload,
	}
}

// OrderStatusHandler bridges order lifecycle events to the deduction
// orchestrator. Item-level failures are already captured inside the
// DeductionResult, so only call-level failures surface as handler errors.
type OrderStatusHandler struct {
	deduction *DeductionService
	logger    *zap.Logger
}

// NewOrderStatusHandler creates a new order status event handler
func NewOrderStatusHandler(deduction *DeductionService, logger *zap.Logger) *OrderStatusHandler {
	return &OrderStatusHandler{
		deduction: deduction,
		logger:    logger,
	}
}

// Handle processes an order status changed event
func (h *OrderStatusHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*OrderStatusChangedEvent)
	if !ok {
		return nil
	}

	result, err := h.deduction.ProcessOrderEvent(ctx, e.Payload)
	if err != nil {
		h.logger.Error("order stock processing failed",
			zap.String("order_id", e.Payload.OrderID),
			zap.String("status", e.Payload.Status),
			zap.Error(err),
		)
		return err
	}

	h.logger.Info("order stock processed",
		zap.String("order_id", result.OrderID),
		zap.String("action", string(result.Action)),
		zap.Bool("skipped", result.Skipped),
		zap.Int("items_processed", result.ItemsProcessed),
		zap.Int("items_succeeded", result.ItemsSucceeded),
		zap.Int("item_errors", len(result.Errors)),
	)
	return nil
}

// EventTypes returns the event types this handler subscribes to
func (h *OrderStatusHandler) EventTypes() []string {
	return []string{EventTypeOrderStatusChanged}
}

// Ensure OrderStatusHandler implements EventHandler
var _ shared.EventHandler = (*OrderStatusHandler)(nil)
