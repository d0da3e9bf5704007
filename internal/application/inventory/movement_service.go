package inventory

import (
	"context"
	"time"

	"github.com/fulfillment/stock-engine/internal/domain/inventory"
	"github.com/fulfillment/stock-engine/internal/domain/shared"
	"github.com/google/uuid"
)

// MovementService exposes read access to the append-only movement
// ledger. Writes happen only inside receipt, adjustment and deduction
// transactions; there is deliberately no create path here.
type MovementService struct {
	scope TransactionScope
}

// NewMovementService creates a new MovementService
func NewMovementService(scope TransactionScope) *MovementService {
	return &MovementService{scope: scope}
}

// GetByID retrieves one ledger entry
func (s *MovementService) GetByID(ctx context.Context, id uuid.UUID) (*MovementResponse, error) {
	var response MovementResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		movement, err := repos.MovementRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		response = ToMovementResponse(movement)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// List retrieves ledger entries matching the filter, newest first
func (s *MovementService) List(ctx context.Context, filter inventory.MovementFilter) (*shared.Paginated[MovementResponse], error) {
	var result shared.Paginated[MovementResponse]
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		movements, err := repos.MovementRepo().FindAll(ctx, filter)
		if err != nil {
			return err
		}
		total, err := repos.MovementRepo().Count(ctx, filter)
		if err != nil {
			return err
		}
		responses := make([]MovementResponse, 0, len(movements))
		for i := range movements {
			responses = append(responses, ToMovementResponse(&movements[i]))
		}
		result = shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// HistoryForOrder retrieves the full movement trail of an order
func (s *MovementService) HistoryForOrder(ctx context.Context, orderID string) ([]MovementResponse, error) {
	var responses []MovementResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		movements, err := repos.MovementRepo().FindByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		responses = make([]MovementResponse, 0, len(movements))
		for i := range movements {
			responses = append(responses, ToMovementResponse(&movements[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return responses, nil
}

// Summarize aggregates the ledger by movement type over a window
func (s *MovementService) Summarize(ctx context.Context, from, to time.Time) ([]inventory.MovementSummary, error) {
	var summaries []inventory.MovementSummary
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		summaries, err = repos.MovementRepo().SummarizeByType(ctx, from, to)
		return err
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}
