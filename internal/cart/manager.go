package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tmrivera/cardhaven-backend/pkg/enums"
	pkgerrors "github.com/tmrivera/cardhaven-backend/pkg/errors"
	"github.com/tmrivera/cardhaven-backend/pkg/justtcg"
	"github.com/tmrivera/cardhaven-backend/pkg/logger"
)

const (
	// DefaultRetention is how long a line may sit in a cart before expiry purges it.
	DefaultRetention = 7 * 24 * time.Hour

	// staleVersionLag is how far a line's version may trail the cart version
	// before an update is treated as a stale concurrent mutation.
	staleVersionLag = 2
)

// defaultPriceDeviationPct is the relative price drift, in percent, above which
// revalidation flags a line.
var defaultPriceDeviationPct = decimal.NewFromInt(5)

// PricingSource supplies live price and stock reads for cart revalidation.
type PricingSource interface {
	CurrentPrice(ctx context.Context, cardID string) (*justtcg.CardPrice, error)
	Stock(ctx context.Context, cardID string) (*justtcg.CardStock, error)
}

// SnapshotPersister stores and removes cart snapshots.
type SnapshotPersister interface {
	Save(ctx context.Context, cartID string, snap Snapshot) error
	Delete(ctx context.Context, cartID string) error
}

// ManagerParams configure a cart manager.
type ManagerParams struct {
	CartID          string
	Store           SnapshotPersister
	Pricing         PricingSource
	Logger          *logger.Logger
	Retention       time.Duration
	PriceDeviation  decimal.Decimal
	NotificationTTL time.Duration
	NotificationCap int
}

// Manager owns the authoritative in-process state of one cart. All mutations go
// through it; nothing else touches the line list or the version counter.
type Manager struct {
	cartID    string
	store     SnapshotPersister
	pricing   PricingSource
	logg      *logger.Logger
	retention time.Duration
	deviation decimal.Decimal
	now       func() time.Time

	mu      sync.Mutex
	items   []LineItem
	version uint64
	notes   *notificationBuffer
}

// NewManager builds a cart manager for the given cart ID.
func NewManager(params ManagerParams) (*Manager, error) {
	if strings.TrimSpace(params.CartID) == "" {
		return nil, fmt.Errorf("cart id required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	if params.Pricing == nil {
		return nil, fmt.Errorf("pricing source required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}
	deviation := params.PriceDeviation
	if deviation.LessThanOrEqual(decimal.Zero) {
		deviation = defaultPriceDeviationPct
	}
	return &Manager{
		cartID:    params.CartID,
		store:     params.Store,
		pricing:   params.Pricing,
		logg:      params.Logger,
		retention: retention,
		deviation: deviation,
		now:       time.Now,
		notes:     newNotificationBuffer(params.NotificationTTL, params.NotificationCap),
	}, nil
}

// Restore seeds the manager with a previously persisted snapshot. It must be
// called before the manager is handed out for mutations.
func (m *Manager) Restore(snap Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append([]LineItem(nil), snap.Items...)
	m.version = snap.Version
}

// CartID returns the identity of the cart this manager owns.
func (m *Manager) CartID() string {
	return m.cartID
}

// AddItemInput is the validated candidate for a new or incremented cart line.
type AddItemInput struct {
	ProductID      string
	DisplayName    string
	ImageURL       string
	ConditionGrade enums.ConditionGrade
	FinishType     enums.FinishType
	Language       string
	UnitPrice      decimal.Decimal
	AvailableStock int
}

// AddItem inserts a new line at quantity 1, or increments the matching line,
// capped at the known available stock. A rejected increment leaves state
// untouched and surfaces a warning notification.
func (m *Manager) AddItem(ctx context.Context, input AddItemInput) error {
	if !m.mu.TryLock() {
		return m.rejectBusy()
	}
	defer m.mu.Unlock()

	now := m.now().UTC()

	if err := m.validateAddInput(input); err != nil {
		m.notes.push(now, enums.NotificationSeverityError, err.Message())
		return err
	}

	key := LineKey{ProductID: input.ProductID, Condition: input.ConditionGrade}
	if idx := m.indexOf(key); idx >= 0 {
		line := &m.items[idx]
		if line.Quantity+1 > line.AvailableStock {
			m.notes.push(now, enums.NotificationSeverityWarning,
				fmt.Sprintf("Only %d of %s (%s) in stock", line.AvailableStock, line.DisplayName, line.ConditionGrade))
			return pkgerrors.New(pkgerrors.CodeConflict, "quantity would exceed available stock")
		}
		line.Quantity++
		m.stamp(line, now)
		m.persist(ctx, now)
		m.notes.push(now, enums.NotificationSeveritySuccess,
			fmt.Sprintf("Added %s (%s) to cart", line.DisplayName, line.ConditionGrade))
		return nil
	}

	line := LineItem{
		ProductID:      input.ProductID,
		DisplayName:    input.DisplayName,
		ImageURL:       input.ImageURL,
		ConditionGrade: input.ConditionGrade,
		FinishType:     input.FinishType,
		Language:       input.Language,
		UnitPrice:      input.UnitPrice,
		Quantity:       1,
		AvailableStock: input.AvailableStock,
		AddedAt:        now,
	}
	m.stamp(&line, now)
	m.items = append(m.items, line)
	m.persist(ctx, now)
	m.notes.push(now, enums.NotificationSeveritySuccess,
		fmt.Sprintf("Added %s (%s) to cart", line.DisplayName, line.ConditionGrade))
	return nil
}

// UpdateQuantity sets the quantity of the matching line directly. A quantity of
// zero or less removes the line. No stock ceiling is applied here; AddItem is
// the only stock-checked entry point.
func (m *Manager) UpdateQuantity(ctx context.Context, productID string, condition enums.ConditionGrade, quantity int) error {
	if !m.mu.TryLock() {
		return m.rejectBusy()
	}
	defer m.mu.Unlock()

	now := m.now().UTC()

	if quantity <= 0 {
		return m.removeLocked(ctx, now, productID, condition)
	}

	idx := m.indexOf(LineKey{ProductID: productID, Condition: condition})
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}

	line := &m.items[idx]
	if m.version-line.Version > staleVersionLag {
		m.notes.push(now, enums.NotificationSeverityWarning,
			fmt.Sprintf("%s was updated elsewhere; refresh your cart", line.DisplayName))
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cart line changed elsewhere")
	}

	line.Quantity = quantity
	m.stamp(line, now)
	m.persist(ctx, now)
	m.notes.push(now, enums.NotificationSeverityInfo,
		fmt.Sprintf("Updated %s (%s) to %d", line.DisplayName, line.ConditionGrade, quantity))
	return nil
}

// Remove deletes the matching line. A notification is emitted only when a line
// was actually removed; removing an absent line is a silent no-op.
func (m *Manager) Remove(ctx context.Context, productID string, condition enums.ConditionGrade) error {
	if !m.mu.TryLock() {
		return m.rejectBusy()
	}
	defer m.mu.Unlock()

	return m.removeLocked(ctx, m.now().UTC(), productID, condition)
}

func (m *Manager) removeLocked(ctx context.Context, now time.Time, productID string, condition enums.ConditionGrade) error {
	idx := m.indexOf(LineKey{ProductID: productID, Condition: condition})
	if idx < 0 {
		return nil
	}

	removed := m.items[idx]
	m.items = append(m.items[:idx], m.items[idx+1:]...)
	m.version++
	m.persist(ctx, now)
	m.notes.push(now, enums.NotificationSeverityInfo,
		fmt.Sprintf("Removed %s (%s) from cart", removed.DisplayName, removed.ConditionGrade))
	return nil
}

// Clear empties the cart and always emits an informational notification.
func (m *Manager) Clear(ctx context.Context) error {
	if !m.mu.TryLock() {
		return m.rejectBusy()
	}
	defer m.mu.Unlock()

	now := m.now().UTC()
	m.items = nil
	m.version++
	m.persist(ctx, now)
	m.notes.push(now, enums.NotificationSeverityInfo, "Cart cleared")
	return nil
}

// ValidateCart re-fetches the live price of every line and flags lines whose
// relative deviation from the stored unit price exceeds the threshold. Lines
// are never removed or re-quantified here. Per-line fetch failures are
// swallowed; the affected line is left unmodified. Returns the number of lines
// flagged in this pass.
func (m *Manager) ValidateCart(ctx context.Context) (int, error) {
	targets := m.revalidationTargets()
	if len(targets) == 0 {
		return 0, nil
	}

	type priceResult struct {
		key     LineKey
		stored  decimal.Decimal
		current decimal.Decimal
	}
	var flagged []priceResult

	for _, target := range targets {
		price, err := m.pricing.CurrentPrice(ctx, target.key.ProductID)
		if err != nil {
			m.logg.Debug(m.logg.WithField(ctx, "product_id", target.key.ProductID), "price revalidation fetch failed")
			continue
		}
		if m.exceedsDeviation(target.price, price.Price) {
			flagged = append(flagged, priceResult{key: target.key, stored: target.price, current: price.Price})
		}
	}

	if len(flagged) == 0 {
		return 0, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	applied := 0
	for _, result := range flagged {
		idx := m.indexOf(result.key)
		if idx < 0 || !m.items[idx].UnitPrice.Equal(result.stored) {
			continue
		}
		line := &m.items[idx]
		original := line.UnitPrice
		current := result.current
		line.PriceChanged = true
		line.OriginalPrice = &original
		line.CurrentPrice = &current
		applied++
	}

	if applied > 0 {
		m.persist(ctx, now)
		m.notes.push(now, enums.NotificationSeverityWarning,
			fmt.Sprintf("Prices changed for %d item(s) in your cart", applied))
	}
	return applied, nil
}

// CheckStock re-fetches live stock for every line and flags lines whose
// quantity can no longer be fulfilled. Quantities are never auto-adjusted.
// Returns the number of lines flagged in this pass.
func (m *Manager) CheckStock(ctx context.Context) (int, error) {
	targets := m.revalidationTargets()
	if len(targets) == 0 {
		return 0, nil
	}

	type stockResult struct {
		key   LineKey
		stock int
	}
	var short []stockResult

	for _, target := range targets {
		stock, err := m.pricing.Stock(ctx, target.key.ProductID)
		if err != nil {
			m.logg.Debug(m.logg.WithField(ctx, "product_id", target.key.ProductID), "stock revalidation fetch failed")
			continue
		}
		if stock.Stock < target.quantity {
			short = append(short, stockResult{key: target.key, stock: stock.Stock})
		}
	}

	if len(short) == 0 {
		return 0, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	applied := 0
	for _, result := range short {
		idx := m.indexOf(result.key)
		if idx < 0 || m.items[idx].Quantity <= result.stock {
			continue
		}
		line := &m.items[idx]
		current := result.stock
		line.OutOfStock = true
		line.CurrentStock = &current
		applied++
	}

	if applied > 0 {
		m.persist(ctx, now)
		m.notes.push(now, enums.NotificationSeverityError,
			fmt.Sprintf("%d item(s) in your cart are out of stock", applied))
	}
	return applied, nil
}

// ClearExpired purges lines older than the retention window, measured from the
// time they were first added. Returns the number of lines purged.
func (m *Manager) ClearExpired(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.items) == 0 {
		return 0, nil
	}

	now := m.now().UTC()
	cutoff := now.Add(-m.retention)
	kept := make([]LineItem, 0, len(m.items))
	purged := 0
	for _, line := range m.items {
		if line.AddedAt.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, line)
	}

	if purged == 0 {
		return 0, nil
	}

	m.items = kept
	m.version++
	m.persist(ctx, now)
	m.notes.push(now, enums.NotificationSeverityInfo,
		fmt.Sprintf("Removed %d expired item(s) from your cart", purged))
	return purged, nil
}

// Stats derives the aggregate cart view. Price-changed lines contribute their
// live price, everything else the add-time price.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := Stats{Total: decimal.Zero, UniqueItems: len(m.items)}
	for _, line := range m.items {
		stats.Total = stats.Total.Add(line.EffectivePrice().Mul(decimal.NewFromInt(int64(line.Quantity))))
		stats.ItemCount += line.Quantity
		if line.PriceChanged {
			stats.PriceChangedItems++
		}
		if line.OutOfStock {
			stats.OutOfStockItems++
		}
	}
	return stats
}

// Items returns a copy of the current line list.
func (m *Manager) Items() []LineItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]LineItem, len(m.items))
	copy(out, m.items)
	return out
}

// Notifications returns the not-yet-expired notifications, oldest first.
func (m *Manager) Notifications() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notes.active(m.now().UTC())
}

// Version returns the cart's mutation version counter.
func (m *Manager) Version() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version
}

// Empty reports whether the cart has no lines.
func (m *Manager) Empty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items) == 0
}

type revalidationTarget struct {
	key      LineKey
	price    decimal.Decimal
	quantity int
}

// revalidationTargets copies the identity/price/quantity of every line so the
// network round trips happen without holding the cart lock.
func (m *Manager) revalidationTargets() []revalidationTarget {
	m.mu.Lock()
	defer m.mu.Unlock()
	targets := make([]revalidationTarget, 0, len(m.items))
	for _, line := range m.items {
		targets = append(targets, revalidationTarget{
			key:      line.Key(),
			price:    line.UnitPrice,
			quantity: line.Quantity,
		})
	}
	return targets
}

func (m *Manager) exceedsDeviation(stored, current decimal.Decimal) bool {
	if stored.LessThanOrEqual(decimal.Zero) {
		return false
	}
	diff := current.Sub(stored).Abs()
	// diff/stored*100 > deviation, kept in integer-friendly decimal form.
	return diff.Mul(decimal.NewFromInt(100)).GreaterThan(stored.Mul(m.deviation))
}

func (m *Manager) validateAddInput(input AddItemInput) *pkgerrors.Error {
	switch {
	case strings.TrimSpace(input.ProductID) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	case strings.TrimSpace(input.DisplayName) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "display name is required")
	case !input.ConditionGrade.IsValid():
		return pkgerrors.New(pkgerrors.CodeValidation, "condition grade is invalid")
	case input.UnitPrice.LessThanOrEqual(decimal.Zero):
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price must be positive")
	case input.AvailableStock <= 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "item is out of stock")
	}
	return nil
}

// stamp bumps the cart version and marks the line as the latest mutation.
func (m *Manager) stamp(line *LineItem, now time.Time) {
	m.version++
	line.Version = m.version
	line.LastModified = now
}

// persist writes the full line list to the snapshot store. Failures are logged
// and swallowed; persistence is fire-and-forget and never fails a mutation.
func (m *Manager) persist(ctx context.Context, now time.Time) {
	snap := Snapshot{
		Items:     append([]LineItem(nil), m.items...),
		Timestamp: now,
		Version:   m.version,
	}
	var err error
	if len(snap.Items) == 0 {
		err = m.store.Delete(ctx, m.cartID)
	} else {
		err = m.store.Save(ctx, m.cartID, snap)
	}
	if err != nil {
		m.logg.Error(m.logg.WithCartID(ctx, m.cartID), "cart snapshot persist failed", err)
	}
}

// rejectBusy drops the operation outright. The caller is expected to retry;
// nothing is queued behind the in-flight mutation.
func (m *Manager) rejectBusy() error {
	m.notes.push(m.now().UTC(), enums.NotificationSeverityInfo, "Another cart update is in progress")
	return pkgerrors.New(pkgerrors.CodeBusy, "another cart operation is in progress")
}

func (m *Manager) indexOf(key LineKey) int {
	for i, line := range m.items {
		if line.Key() == key {
			return i
		}
	}
	return -1
}
