package inventory

import (
	"context"
	"errors"

	"github.com/fulfillment/stock-engine/internal/domain/inventory"
	"github.com/fulfillment/stock-engine/internal/domain/shared"
)

// DefaultMaxRetries bounds optimistic retry attempts when a transaction
// loses a version race
const DefaultMaxRetries = 3

// executeWithRetry runs fn through the transaction scope, retrying the
// whole transaction when it fails on an optimistic version conflict.
// Each retry re-reads current state inside a fresh transaction. Once
// the attempt budget is exhausted the conflict surfaces as
// ErrStoreContentionExceeded.
func executeWithRetry(ctx context.Context, scope TransactionScope, maxRetries int, fn func(repos TransactionalRepositories) error) error {
	if maxRetries < 1 {
		maxRetries = DefaultMaxRetries
	}

	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = scope.Execute(ctx, fn)
		if err == nil || !errors.Is(err, shared.ErrConcurrencyConflict) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return inventory.ErrStoreContentionExceeded
}
