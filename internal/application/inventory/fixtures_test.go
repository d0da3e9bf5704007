package inventory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	appcatalog "github.com/fulfillment/stock-engine/internal/application/catalog"
	appwarehouse "github.com/fulfillment/stock-engine/internal/application/warehouse"
	"github.com/fulfillment/stock-engine/internal/domain/catalog"
	"github.com/fulfillment/stock-engine/internal/domain/inventory"
	"github.com/fulfillment/stock-engine/internal/domain/shared"
	"github.com/fulfillment/stock-engine/internal/domain/warehouse"
	"github.com/google/uuid"
)

// MockEventPublisher collects published events for assertions
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{events: make([]shared.DomainEvent, 0)}
}

func (m *MockEventPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

// memProductRepo is an in-memory catalog.ProductRepository
type memProductRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]catalog.Product
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{items: make(map[uuid.UUID]catalog.Product)}
}

func (r *memProductRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.items[id]; ok {
		return &p, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memProductRepo) FindBySKU(_ context.Context, sku string) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.items {
		if p.SKU == strings.ToUpper(sku) {
			found := p
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memProductRepo) FindAll(_ context.Context, _ shared.Filter) ([]catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]catalog.Product, 0, len(r.items))
	for _, p := range r.items {
		result = append(result, p)
	}
	return result, nil
}

func (r *memProductRepo) Save(_ context.Context, product *catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.items {
		if p.SKU == product.SKU && id != product.ID {
			return shared.ErrAlreadyExists
		}
	}
	r.items[product.ID] = *product
	return nil
}

func (r *memProductRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.items)), nil
}

func (r *memProductRepo) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	_, err := r.FindBySKU(ctx, sku)
	if err == nil {
		return true, nil
	}
	return false, nil
}

// memWarehouseRepo is an in-memory warehouse.Repository
type memWarehouseRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]warehouse.Warehouse
}

func newMemWarehouseRepo() *memWarehouseRepo {
	return &memWarehouseRepo{items: make(map[uuid.UUID]warehouse.Warehouse)}
}

func (r *memWarehouseRepo) FindByID(_ context.Context, id uuid.UUID) (*warehouse.Warehouse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.items[id]; ok {
		return &w, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memWarehouseRepo) FindByCode(_ context.Context, code string) (*warehouse.Warehouse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.items {
		if w.Code == strings.ToUpper(code) {
			found := w
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memWarehouseRepo) FindPrimary(_ context.Context) (*warehouse.Warehouse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.items {
		if w.Primary && w.Active {
			found := w
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memWarehouseRepo) FindAll(_ context.Context, _ shared.Filter) ([]warehouse.Warehouse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]warehouse.Warehouse, 0, len(r.items))
	for _, w := range r.items {
		result = append(result, w)
	}
	return result, nil
}

func (r *memWarehouseRepo) Save(_ context.Context, wh *warehouse.Warehouse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[wh.ID] = *wh
	return nil
}

// memLotRepo is an in-memory inventory.LotRepository with real
// optimistic version checks
type memLotRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]inventory.Lot
}

func newMemLotRepo() *memLotRepo {
	return &memLotRepo{items: make(map[uuid.UUID]inventory.Lot)}
}

func (r *memLotRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.items[id]; ok {
		return &l, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memLotRepo) FindByNumber(_ context.Context, lotNumber string) (*inventory.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.items {
		if l.LotNumber == lotNumber {
			found := l
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memLotRepo) FindAll(_ context.Context, filter inventory.LotFilter) ([]inventory.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]inventory.Lot, 0)
	for _, l := range r.items {
		if filter.ProductID != nil && l.ProductID != *filter.ProductID {
			continue
		}
		if filter.WarehouseID != nil && l.WarehouseID != *filter.WarehouseID {
			continue
		}
		if filter.Active != nil && l.Active != *filter.Active {
			continue
		}
		result = append(result, l)
	}
	return result, nil
}

func (r *memLotRepo) FindAllocatable(_ context.Context, productID, warehouseID uuid.UUID) ([]inventory.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]inventory.Lot, 0)
	for _, l := range r.items {
		lot := l
		if lot.ProductID == productID && lot.WarehouseID == warehouseID && lot.IsAllocatable() {
			result = append(result, lot)
		}
	}
	return result, nil
}

func (r *memLotRepo) FindMostRecentActive(_ context.Context, productID, warehouseID uuid.UUID) (*inventory.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var candidates []inventory.Lot
	for _, l := range r.items {
		if l.ProductID == productID && l.WarehouseID == warehouseID && l.Active {
			candidates = append(candidates, l)
		}
	}
	if len(candidates) == 0 {
		return nil, shared.ErrNotFound
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})
	return &candidates[0], nil
}

func (r *memLotRepo) FindExpiringBefore(_ context.Context, cutoff time.Time) ([]inventory.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]inventory.Lot, 0)
	for _, l := range r.items {
		if l.Active && l.CurrentQuantity.IsPositive() && l.ExpiryDate != nil && l.ExpiryDate.Before(cutoff) {
			result = append(result, l)
		}
	}
	return result, nil
}

func (r *memLotRepo) ExistsByNumber(ctx context.Context, lotNumber string) (bool, error) {
	_, err := r.FindByNumber(ctx, lotNumber)
	return err == nil, nil
}

func (r *memLotRepo) Save(_ context.Context, lot *inventory.Lot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[lot.ID] = *lot
	return nil
}

func (r *memLotRepo) SaveWithLock(_ context.Context, lot *inventory.Lot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[lot.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != lot.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	r.items[lot.ID] = *lot
	return nil
}

func (r *memLotRepo) Count(ctx context.Context, filter inventory.LotFilter) (int64, error) {
	lots, _ := r.FindAll(ctx, filter)
	return int64(len(lots)), nil
}

// memMovementRepo is an in-memory append-only inventory.MovementRepository
type memMovementRepo struct {
	mu    sync.Mutex
	items []inventory.StockMovement
}

func newMemMovementRepo() *memMovementRepo { return &memMovementRepo{} }

func (r *memMovementRepo) Create(_ context.Context, m *inventory.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, *m)
	return nil
}

func (r *memMovementRepo) CreateBatch(ctx context.Context, movements []*inventory.StockMovement) error {
	for _, m := range movements {
		if err := r.Create(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (r *memMovementRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.items {
		if m.ID == id {
			found := m
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memMovementRepo) FindAll(_ context.Context, filter inventory.MovementFilter) ([]inventory.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]inventory.StockMovement, 0)
	for _, m := range r.items {
		if filter.ProductID != nil && m.ProductID != *filter.ProductID {
			continue
		}
		if filter.MovementType != nil && m.MovementType != *filter.MovementType {
			continue
		}
		if filter.OrderID != "" && m.OrderID != filter.OrderID {
			continue
		}
		result = append(result, m)
	}
	return result, nil
}

func (r *memMovementRepo) FindByOrder(ctx context.Context, orderID string) ([]inventory.StockMovement, error) {
	return r.FindAll(ctx, inventory.MovementFilter{OrderID: orderID})
}

func (r *memMovementRepo) Count(ctx context.Context, filter inventory.MovementFilter) (int64, error) {
	movements, _ := r.FindAll(ctx, filter)
	return int64(len(movements)), nil
}

func (r *memMovementRepo) SummarizeByType(_ context.Context, from, to time.Time) ([]inventory.MovementSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byType := make(map[inventory.MovementType]*inventory.MovementSummary)
	for _, m := range r.items {
		if m.OccurredAt.Before(from) || m.OccurredAt.After(to) {
			continue
		}
		s, ok := byType[m.MovementType]
		if !ok {
			s = &inventory.MovementSummary{MovementType: m.MovementType}
			byType[m.MovementType] = s
		}
		s.Count++
		s.TotalQuantity = s.TotalQuantity.Add(m.Quantity.Abs())
		s.TotalCost = s.TotalCost.Add(m.TotalCost)
	}
	result := make([]inventory.MovementSummary, 0, len(byType))
	for _, s := range byType {
		result = append(result, *s)
	}
	return result, nil
}

// memStockLevelRepo is an in-memory inventory.StockLevelRepository
type memStockLevelRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]inventory.StockLevel
}

func newMemStockLevelRepo() *memStockLevelRepo {
	return &memStockLevelRepo{items: make(map[uuid.UUID]inventory.StockLevel)}
}

func (r *memStockLevelRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.StockLevel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.items[id]; ok {
		return &l, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memStockLevelRepo) FindByProductAndWarehouse(_ context.Context, productID, warehouseID uuid.UUID) (*inventory.StockLevel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.items {
		if l.ProductID == productID && l.WarehouseID == warehouseID {
			found := l
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memStockLevelRepo) GetOrCreate(ctx context.Context, productID, warehouseID uuid.UUID) (*inventory.StockLevel, error) {
	if level, err := r.FindByProductAndWarehouse(ctx, productID, warehouseID); err == nil {
		return level, nil
	}
	level, err := inventory.NewStockLevel(productID, warehouseID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[level.ID] = *level
	return level, nil
}

func (r *memStockLevelRepo) FindAll(_ context.Context, _ shared.Filter) ([]inventory.StockLevel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]inventory.StockLevel, 0, len(r.items))
	for _, l := range r.items {
		result = append(result, l)
	}
	return result, nil
}

func (r *memStockLevelRepo) FindByWarehouse(_ context.Context, warehouseID uuid.UUID) ([]inventory.StockLevel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]inventory.StockLevel, 0)
	for _, l := range r.items {
		if l.WarehouseID == warehouseID {
			result = append(result, l)
		}
	}
	return result, nil
}

func (r *memStockLevelRepo) Save(_ context.Context, level *inventory.StockLevel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[level.ID] = *level
	return nil
}

func (r *memStockLevelRepo) SaveWithLock(_ context.Context, level *inventory.StockLevel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[level.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != level.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	r.items[level.ID] = *level
	return nil
}

func (r *memStockLevelRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	levels, _ := r.FindAll(ctx, filter)
	return int64(len(levels)), nil
}

// memAlertRepo is an in-memory inventory.AlertRepository
type memAlertRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]inventory.StockAlert
}

func newMemAlertRepo() *memAlertRepo {
	return &memAlertRepo{items: make(map[uuid.UUID]inventory.StockAlert)}
}

func (r *memAlertRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.StockAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.items[id]; ok {
		return &a, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memAlertRepo) FindOpen(_ context.Context, alertType inventory.AlertType, productID *uuid.UUID, warehouseID uuid.UUID) (*inventory.StockAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.items {
		if a.Resolved || a.AlertType != alertType || a.WarehouseID != warehouseID {
			continue
		}
		if (a.ProductID == nil) != (productID == nil) {
			continue
		}
		if productID != nil && *a.ProductID != *productID {
			continue
		}
		found := a
		return &found, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memAlertRepo) FindAll(_ context.Context, filter inventory.AlertFilter) ([]inventory.StockAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]inventory.StockAlert, 0)
	for _, a := range r.items {
		if filter.AlertType != nil && a.AlertType != *filter.AlertType {
			continue
		}
		if filter.Resolved != nil && a.Resolved != *filter.Resolved {
			continue
		}
		if filter.Severity != nil && a.Severity != *filter.Severity {
			continue
		}
		result = append(result, a)
	}
	return result, nil
}

func (r *memAlertRepo) Save(_ context.Context, alert *inventory.StockAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[alert.ID] = *alert
	return nil
}

func (r *memAlertRepo) Count(ctx context.Context, filter inventory.AlertFilter) (int64, error) {
	alerts, _ := r.FindAll(ctx, filter)
	return int64(len(alerts)), nil
}

func (r *memAlertRepo) Summarize(_ context.Context) (*inventory.AlertSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	summary := &inventory.AlertSummary{}
	for _, a := range r.items {
		summary.Total++
		if !a.Resolved {
			summary.Unresolved++
		}
		switch a.Severity {
		case inventory.SeverityCritical:
			summary.Critical++
		case inventory.SeverityWarning:
			summary.Warning++
		case inventory.SeverityInfo:
			summary.Info++
		}
	}
	return summary, nil
}

// memGuard is an in-memory OrderDeductionGuard
type memGuard struct {
	mu       sync.Mutex
	deducted map[string]bool
}

func newMemGuard() *memGuard { return &memGuard{deducted: make(map[string]bool)} }

func (g *memGuard) IsDeducted(_ context.Context, orderID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.deducted[orderID], nil
}

func (g *memGuard) MarkDeducted(_ context.Context, orderID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deducted[orderID] = true
	return nil
}

func (g *memGuard) ClearDeducted(_ context.Context, orderID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.deducted, orderID)
	return nil
}

// fixture wires all services over in-memory repositories
type fixture struct {
	productRepo    *memProductRepo
	warehouseRepo  *memWarehouseRepo
	lotRepo        *memLotRepo
	movementRepo   *memMovementRepo
	stockLevelRepo *memStockLevelRepo
	alertRepo      *memAlertRepo
	guard          *memGuard
	publisher      *MockEventPublisher

	scope       TransactionScope
	products    *appcatalog.ProductService
	warehouses  *appwarehouse.Service
	lots        *LotService
	levels      *StockLevelService
	movements   *MovementService
	alerts      *AlertService
	deductions  *DeductionService
	warehouseID uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		productRepo:    newMemProductRepo(),
		warehouseRepo:  newMemWarehouseRepo(),
		lotRepo:        newMemLotRepo(),
		movementRepo:   newMemMovementRepo(),
		stockLevelRepo: newMemStockLevelRepo(),
		alertRepo:      newMemAlertRepo(),
		guard:          newMemGuard(),
		publisher:      NewMockEventPublisher(),
	}
	f.scope = NewNoOpTransactionScope(f.productRepo, f.warehouseRepo, f.lotRepo, f.movementRepo, f.stockLevelRepo, f.alertRepo)
	f.products = appcatalog.NewProductService(f.productRepo)
	f.warehouses = appwarehouse.NewService(f.warehouseRepo)
	f.alerts = NewAlertService(f.scope)
	f.alerts.SetEventPublisher(f.publisher)
	f.lots = NewLotService(f.scope, f.products, f.warehouses)
	f.lots.SetEventPublisher(f.publisher)
	f.levels = NewStockLevelService(f.scope)
	f.movements = NewMovementService(f.scope)
	f.deductions = NewDeductionService(f.scope, f.products, f.warehouses, f.alerts, f.guard)
	f.deductions.SetEventPublisher(f.publisher)

	wh, err := warehouse.NewWarehouse("MAIN", "Main Warehouse")
	if err != nil {
		panic(err)
	}
	wh.MarkPrimary()
	if err := f.warehouseRepo.Save(context.Background(), wh); err != nil {
		panic(err)
	}
	f.warehouseID = wh.ID
	return f
}
