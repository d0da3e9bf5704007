package cache

import (
	"context"
	"sync"
	"time"

	appinv "github.com/fulfillment/stock-engine/internal/application/inventory"
)

// guardEntry represents a deduction mark with optional expiration
type guardEntry struct {
	expiresAt time.Time // zero value means no expiry
}

func (e guardEntry) expired() bool {
	return !e.expiresAt.IsZero() && time.Now().After(e.expiresAt)
}

// InMemoryOrderGuard implements OrderDeductionGuard using an in-memory
// map. Suitable for single-instance deployments and testing.
type InMemoryOrderGuard struct {
	mu        sync.RWMutex
	entries   map[string]guardEntry
	ttl       time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryOrderGuard creates a new in-memory order deduction guard.
// ttl bounds how long a deduction mark is kept; zero means marks never
// expire. A background goroutine removes expired entries.
func NewInMemoryOrderGuard(ttl time.Duration) *InMemoryOrderGuard {
	guard := &InMemoryOrderGuard{
		entries:  make(map[string]guardEntry),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}

	guard.wg.Add(1)
	go guard.cleanupLoop()

	return guard
}

// IsDeducted reports whether stock was already deducted for the order
func (g *InMemoryOrderGuard) IsDeducted(_ context.Context, orderID string) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	e, exists := g.entries[orderID]
	if !exists || e.expired() {
		return false, nil
	}
	return true, nil
}

// MarkDeducted records that stock was deducted for the order
func (g *InMemoryOrderGuard) MarkDeducted(_ context.Context, orderID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	e := guardEntry{}
	if g.ttl > 0 {
		e.expiresAt = time.Now().Add(g.ttl)
	}
	g.entries[orderID] = e
	return nil
}

// ClearDeducted removes the deduction mark after stock is added back
func (g *InMemoryOrderGuard) ClearDeducted(_ context.Context, orderID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.entries, orderID)
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (g *InMemoryOrderGuard) Close() error {
	g.closeOnce.Do(func() {
		close(g.stopChan)
		g.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired entries
func (g *InMemoryOrderGuard) cleanupLoop() {
	defer g.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-g.stopChan:
			return
		case <-ticker.C:
			g.cleanup()
		}
	}
}

func (g *InMemoryOrderGuard) cleanup() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for orderID, e := range g.entries {
		if e.expired() {
			delete(g.entries, orderID)
		}
	}
}

// Ensure InMemoryOrderGuard implements OrderDeductionGuard
var _ appinv.OrderDeductionGuard = (*InMemoryOrderGuard)(nil)
