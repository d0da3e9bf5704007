package inventory

import (
	"context"

	"github.com/fulfillment/stock-engine/internal/domain/catalog"
	"github.com/fulfillment/stock-engine/internal/domain/inventory"
	"github.com/fulfillment/stock-engine/internal/domain/warehouse"
)

// TransactionScope provides transactional access to inventory repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a
// transaction. All repositories returned share the same underlying
// database transaction.
//
// Aggregate boundary notes:
//   - Lots are the source of truth for on-hand stock; every quantity
//     mutation goes through LotRepo with an optimistic version guard.
//   - MovementRepo is append-only; the ledger is written in the same
//     transaction that mutates the lot it snapshots.
//   - StockLevelRepo holds the derived per-product view; it is updated
//     in the same transaction and repaired by reconciliation when needed.
type TransactionalRepositories interface {
	// ProductRepo returns the product repository scoped to the current transaction
	ProductRepo() catalog.ProductRepository
	// WarehouseRepo returns the warehouse repository scoped to the current transaction
	WarehouseRepo() warehouse.Repository
	// LotRepo returns the lot repository scoped to the current transaction
	LotRepo() inventory.LotRepository
	// MovementRepo returns the movement ledger repository scoped to the current transaction
	MovementRepo() inventory.MovementRepository
	// StockLevelRepo returns the stock level repository scoped to the current transaction
	StockLevelRepo() inventory.StockLevelRepository
	// AlertRepo returns the alert repository scoped to the current transaction
	AlertRepo() inventory.AlertRepository
}

// NoOpTransactionScope is a transaction scope that does not open real
// transactions. Useful for tests and for callers that already hold one.
type NoOpTransactionScope struct {
	productRepo    catalog.ProductRepository
	warehouseRepo  warehouse.Repository
	lotRepo        inventory.LotRepository
	movementRepo   inventory.MovementRepository
	stockLevelRepo inventory.StockLevelRepository
	alertRepo      inventory.AlertRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories
func NewNoOpTransactionScope(
	productRepo catalog.ProductRepository,
	warehouseRepo warehouse.Repository,
	lotRepo inventory.LotRepository,
	movementRepo inventory.MovementRepository,
	stockLevelRepo inventory.StockLevelRepository,
	alertRepo inventory.AlertRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		productRepo:    productRepo,
		warehouseRepo:  warehouseRepo,
		lotRepo:        lotRepo,
		movementRepo:   movementRepo,
		stockLevelRepo: stockLevelRepo,
		alertRepo:      alertRepo,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ProductRepo returns the product repository
func (s *NoOpTransactionScope) ProductRepo() catalog.ProductRepository { return s.productRepo }

// WarehouseRepo returns the warehouse repository
func (s *NoOpTransactionScope) WarehouseRepo() warehouse.Repository { return s.warehouseRepo }

// LotRepo returns the lot repository
func (s *NoOpTransactionScope) LotRepo() inventory.LotRepository { return s.lotRepo }

// MovementRepo returns the movement ledger repository
func (s *NoOpTransactionScope) MovementRepo() inventory.MovementRepository { return s.movementRepo }

// StockLevelRepo returns the stock level repository
func (s *NoOpTransactionScope) StockLevelRepo() inventory.StockLevelRepository {
	return s.stockLevelRepo
}

// AlertRepo returns the alert repository
func (s *NoOpTransactionScope) AlertRepo() inventory.AlertRepository { return s.alertRepo }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
