package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tmrivera/cardhaven-backend/pkg/logger"
)

// SnapshotSource is the read side of the snapshot store the registry needs to
// materialize a manager.
type SnapshotSource interface {
	SnapshotPersister
	Load(ctx context.Context, cartID string) Snapshot
	LiveCartIDs(ctx context.Context) ([]string, error)
}

// RegistryParams configure the manager registry.
type RegistryParams struct {
	Store           SnapshotSource
	Pricing         PricingSource
	Logger          *logger.Logger
	Retention       time.Duration
	PriceDeviation  decimal.Decimal
	NotificationTTL time.Duration
	NotificationCap int
}

// Registry hands out one Manager per cart ID, materializing each from its
// persisted snapshot on first use. Managers are process-local; the snapshot
// store is the durable source of truth between restarts.
type Registry struct {
	params RegistryParams

	mu       sync.RWMutex
	managers map[string]*Manager
}

// NewRegistry builds a manager registry.
func NewRegistry(params RegistryParams) (*Registry, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	if params.Pricing == nil {
		return nil, fmt.Errorf("pricing source required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Registry{
		params:   params,
		managers: make(map[string]*Manager),
	}, nil
}

// Manager returns the manager for the given cart, loading its snapshot from
// the store the first time the cart is seen by this process.
func (r *Registry) Manager(ctx context.Context, cartID string) (*Manager, error) {
	r.mu.RLock()
	mgr, ok := r.managers[cartID]
	r.mu.RUnlock()
	if ok {
		return mgr, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if mgr, ok := r.managers[cartID]; ok {
		return mgr, nil
	}

	mgr, err := NewManager(ManagerParams{
		CartID:          cartID,
		Store:           r.params.Store,
		Pricing:         r.params.Pricing,
		Logger:          r.params.Logger,
		Retention:       r.params.Retention,
		PriceDeviation:  r.params.PriceDeviation,
		NotificationTTL: r.params.NotificationTTL,
		NotificationCap: r.params.NotificationCap,
	})
	if err != nil {
		return nil, err
	}
	mgr.Restore(r.params.Store.Load(ctx, cartID))
	r.managers[cartID] = mgr
	return mgr, nil
}

// LiveCartIDs lists cart IDs known to the snapshot store.
func (r *Registry) LiveCartIDs(ctx context.Context) ([]string, error) {
	return r.params.Store.LiveCartIDs(ctx)
}

// Evict drops a cart's manager from the registry. Its next use reloads the
// persisted snapshot.
func (r *Registry) Evict(cartID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.managers, cartID)
}
