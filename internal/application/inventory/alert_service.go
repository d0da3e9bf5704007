package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fulfillment/stock-engine/internal/domain/inventory"
	"github.com/fulfillment/stock-engine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// DefaultExpiryWindow is how far ahead the expiry sweep looks
	DefaultExpiryWindow = 30 * 24 * time.Hour
	// DefaultCriticalWindow is the remaining shelf life below which an
	// expiry alert escalates to CRITICAL
	DefaultCriticalWindow = 7 * 24 * time.Hour
)

// AlertNotifier delivers raised alerts to an external channel. Delivery
// failures are logged and never fail the operation that raised the alert.
type AlertNotifier interface {
	Notify(ctx context.Context, alert *inventory.StockAlert) error
}

// AlertService maintains stock alerts. It enforces the upsert-open
// rule: at most one unresolved alert per product, warehouse and type,
// with repeated triggers refreshing the open alert in place.
type AlertService struct {
	scope          TransactionScope
	eventPublisher shared.EventPublisher
	notifier       AlertNotifier
	expiryWindow   time.Duration
	criticalWindow time.Duration
}

// NewAlertService creates a new AlertService with default sweep windows
func NewAlertService(scope TransactionScope) *AlertService {
	return &AlertService{
		scope:          scope,
		expiryWindow:   DefaultExpiryWindow,
		criticalWindow: DefaultCriticalWindow,
	}
}

// SetEventPublisher sets the event publisher for alert events
func (s *AlertService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetNotifier sets the outbound alert notifier
func (s *AlertService) SetNotifier(notifier AlertNotifier) {
	s.notifier = notifier
}

// SetWindows overrides the expiry sweep windows
func (s *AlertService) SetWindows(expiry, critical time.Duration) {
	if expiry > 0 {
		s.expiryWindow = expiry
	}
	if critical > 0 {
		s.criticalWindow = critical
	}
}

// RaiseParams carries everything needed to raise or refresh an alert
type RaiseParams struct {
	Type        inventory.AlertType
	Severity    inventory.AlertSeverity
	ProductID   *uuid.UUID
	WarehouseID uuid.UUID
	LotID       *uuid.UUID
	SKU         string
	Current     decimal.Decimal
	Threshold   decimal.Decimal
	Message     string
}

// Raise opens a new alert or refreshes the open one for the same
// product, warehouse and type. Returns the alert and whether it was
// newly created.
func (s *AlertService) Raise(ctx context.Context, params RaiseParams) (*inventory.StockAlert, bool, error) {
	var alert *inventory.StockAlert
	created := false

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := repos.AlertRepo().FindOpen(ctx, params.Type, params.ProductID, params.WarehouseID)
		if err == nil {
			if err := existing.Refresh(params.Severity, params.Current, params.Message); err != nil {
				return err
			}
			existing.Threshold = params.Threshold
			alert = existing
			return repos.AlertRepo().Save(ctx, existing)
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		alert, err = inventory.NewStockAlert(params.Type, params.Severity, params.ProductID, params.WarehouseID, params.Message)
		if err != nil {
			return err
		}
		alert.WithQuantities(params.Current, params.Threshold).WithSKU(params.SKU)
		if params.LotID != nil {
			alert.WithLot(*params.LotID)
		}
		created = true
		return repos.AlertRepo().Save(ctx, alert)
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.publish(ctx, inventory.NewAlertRaisedEvent(alert))
		s.notify(ctx, alert)
	}
	return alert, created, nil
}

// Resolve closes an open alert
func (s *AlertService) Resolve(ctx context.Context, alertID uuid.UUID, resolvedBy string) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		alert, err := repos.AlertRepo().FindByID(ctx, alertID)
		if err != nil {
			return err
		}
		if err := alert.Resolve(resolvedBy); err != nil {
			return err
		}
		return repos.AlertRepo().Save(ctx, alert)
	})
}

// ResolveOpen closes the open alert for a product, warehouse and type
// if one exists. Used to auto-clear LOW_STOCK alerts once stock
// recovers above the threshold.
func (s *AlertService) ResolveOpen(ctx context.Context, alertType inventory.AlertType, productID *uuid.UUID, warehouseID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		alert, err := repos.AlertRepo().FindOpen(ctx, alertType, productID, warehouseID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil
			}
			return err
		}
		if err := alert.Resolve(inventory.SystemActor); err != nil {
			return err
		}
		return repos.AlertRepo().Save(ctx, alert)
	})
}

// List retrieves alerts matching the filter
func (s *AlertService) List(ctx context.Context, filter inventory.AlertFilter) (*shared.Paginated[AlertResponse], error) {
	var result shared.Paginated[AlertResponse]
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		alerts, err := repos.AlertRepo().FindAll(ctx, filter)
		if err != nil {
			return err
		}
		total, err := repos.AlertRepo().Count(ctx, filter)
		if err != nil {
			return err
		}
		responses := make([]AlertResponse, 0, len(alerts))
		for i := range alerts {
			responses = append(responses, ToAlertResponse(&alerts[i]))
		}
		result = shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Summary aggregates alert counts by severity
func (s *AlertService) Summary(ctx context.Context) (*inventory.AlertSummary, error) {
	var summary *inventory.AlertSummary
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		summary, err = repos.AlertRepo().Summarize(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// CheckExpiryAlerts sweeps active lots expiring inside the expiry
// window and raises EXPIRING_SOON or EXPIRED alerts. Lots inside the
// critical window escalate to CRITICAL severity. Returns the number of
// alerts raised or refreshed.
func (s *AlertService) CheckExpiryAlerts(ctx context.Context) (int, error) {
	var lots []inventory.Lot
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		lots, err = repos.LotRepo().FindExpiringBefore(ctx, time.Now().Add(s.expiryWindow))
		return err
	})
	if err != nil {
		return 0, err
	}

	raised := 0
	for i := range lots {
		lot := &lots[i]
		days, ok := lot.DaysUntilExpiry()
		if !ok {
			continue
		}

		alertType := inventory.AlertExpiringSoon
		severity := inventory.SeverityWarning
		message := fmt.Sprintf("lot %s expires in %d days (%s units remaining)", lot.LotNumber, days, lot.CurrentQuantity.String())
		switch {
		case lot.IsExpired():
			alertType = inventory.AlertExpired
			severity = inventory.SeverityCritical
			message = fmt.Sprintf("lot %s has expired (%s units remaining)", lot.LotNumber, lot.CurrentQuantity.String())
		case lot.ExpiresWithin(s.criticalWindow):
			severity = inventory.SeverityCritical
		}

		if _, _, err := s.Raise(ctx, RaiseParams{
			Type:        alertType,
			Severity:    severity,
			ProductID:   &lot.ProductID,
			WarehouseID: lot.WarehouseID,
			LotID:       &lot.ID,
			Current:     lot.CurrentQuantity,
			Message:     message,
		}); err != nil {
			return raised, err
		}
		s.publish(ctx, inventory.NewLotExpiringSoonEvent(lot, days))
		raised++
	}
	return raised, nil
}

// CheckLowStockLevels sweeps all stock levels against their product
// thresholds, raising LOW_STOCK and OUT_OF_STOCK alerts and resolving
// ones whose stock has recovered. Returns the number of alerts raised
// or refreshed.
func (s *AlertService) CheckLowStockLevels(ctx context.Context) (int, error) {
	type observation struct {
		level     inventory.StockLevel
		threshold decimal.Decimal
	}
	var observations []observation

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		levels, err := repos.StockLevelRepo().FindAll(ctx, shared.Filter{})
		if err != nil {
			return err
		}
		for i := range levels {
			product, err := repos.ProductRepo().FindByID(ctx, levels[i].ProductID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					continue
				}
				return err
			}
			if !product.HasThreshold() {
				continue
			}
			observations = append(observations, observation{level: levels[i], threshold: product.MinThreshold})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	raised := 0
	for _, obs := range observations {
		level := obs.level
		switch {
		case level.IsOutOfStock():
			_, _, err = s.Raise(ctx, RaiseParams{
				Type:        inventory.AlertOutOfStock,
				Severity:    inventory.SeverityCritical,
				ProductID:   &level.ProductID,
				WarehouseID: level.WarehouseID,
				Current:     level.AvailableQuantity,
				Threshold:   obs.threshold,
				Message:     "product is out of stock",
			})
			raised++
		case level.IsBelowThreshold(obs.threshold):
			_, _, err = s.Raise(ctx, RaiseParams{
				Type:        inventory.AlertLowStock,
				Severity:    inventory.SeverityWarning,
				ProductID:   &level.ProductID,
				WarehouseID: level.WarehouseID,
				Current:     level.AvailableQuantity,
				Threshold:   obs.threshold,
				Message:     fmt.Sprintf("available stock %s is below threshold %s", level.AvailableQuantity.String(), obs.threshold.String()),
			})
			raised++
		default:
			// Recovered: clear any open low or out-of-stock alerts
			if err = s.ResolveOpen(ctx, inventory.AlertLowStock, &level.ProductID, level.WarehouseID); err == nil {
				err = s.ResolveOpen(ctx, inventory.AlertOutOfStock, &level.ProductID, level.WarehouseID)
			}
		}
		if err != nil {
			return raised, err
		}
	}
	return raised, nil
}

func (s *AlertService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

func (s *AlertService) notify(ctx context.Context, alert *inventory.StockAlert) {
	if s.notifier == nil {
		return
	}
	// Notification failures must not fail the triggering operation
	_ = s.notifier.Notify(ctx, alert)
}
