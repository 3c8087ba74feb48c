package revalidation

import (
	"context"
	"fmt"
	"testing"
)

type fakeRevalidator struct {
	empty        bool
	priceFlags   int
	stockFlags   int
	expiredLines int
	priceErr     error
	stockErr     error
	expiryErr    error

	validateCalls int
	stockCalls    int
	expiryCalls   int
}

func (f *fakeRevalidator) ValidateCart(ctx context.Context) (int, error) {
	f.validateCalls++
	return f.priceFlags, f.priceErr
}

func (f *fakeRevalidator) CheckStock(ctx context.Context) (int, error) {
	f.stockCalls++
	return f.stockFlags, f.stockErr
}

func (f *fakeRevalidator) ClearExpired(ctx context.Context) (int, error) {
	f.expiryCalls++
	return f.expiredLines, f.expiryErr
}

func (f *fakeRevalidator) Empty() bool { return f.empty }

type fakeSource struct {
	carts   map[string]*fakeRevalidator
	order   []string
	listErr error
	evicted []string
}

func (f *fakeSource) LiveCartIDs(ctx context.Context) ([]string, error) {
	return f.order, f.listErr
}

func (f *fakeSource) Revalidator(ctx context.Context, cartID string) (cartRevalidator, error) {
	mgr, ok := f.carts[cartID]
	if !ok {
		return nil, fmt.Errorf("unknown cart %s", cartID)
	}
	return mgr, nil
}

func (f *fakeSource) Evict(cartID string) {
	f.evicted = append(f.evicted, cartID)
}

func TestPriceJobValidatesEveryNonEmptyCart(t *testing.T) {
	source := &fakeSource{
		order: []string{"cart-a", "cart-b", "cart-c"},
		carts: map[string]*fakeRevalidator{
			"cart-a": {priceFlags: 2},
			"cart-b": {empty: true},
			"cart-c": {priceFlags: 1},
		},
	}

	job, err := NewPriceJob(PriceJobParams{Logger: testLogger(), Carts: source})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("job failed: %v", err)
	}

	if source.carts["cart-a"].validateCalls != 1 {
		t.Fatalf("expected cart-a validated once")
	}
	if source.carts["cart-b"].validateCalls != 0 {
		t.Fatalf("empty cart must be skipped")
	}
	if source.carts["cart-c"].validateCalls != 1 {
		t.Fatalf("expected cart-c validated once")
	}
}

func TestPriceJobAggregatesPerCartErrors(t *testing.T) {
	source := &fakeSource{
		order: []string{"cart-bad", "cart-ok"},
		carts: map[string]*fakeRevalidator{
			"cart-bad": {priceErr: fmt.Errorf("upstream down")},
			"cart-ok":  {priceFlags: 1},
		},
	}

	job, err := NewPriceJob(PriceJobParams{Logger: testLogger(), Carts: source})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	runErr := job.Run(context.Background())
	if runErr == nil {
		t.Fatalf("expected aggregated error")
	}
	// One failing cart does not stop the loop for the rest.
	if source.carts["cart-ok"].validateCalls != 1 {
		t.Fatalf("expected cart-ok validated despite cart-bad failure")
	}
}

func TestStockJobChecksEveryNonEmptyCart(t *testing.T) {
	source := &fakeSource{
		order: []string{"cart-a", "cart-b"},
		carts: map[string]*fakeRevalidator{
			"cart-a": {stockFlags: 1},
			"cart-b": {empty: true},
		},
	}

	job, err := NewStockJob(StockJobParams{Logger: testLogger(), Carts: source})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("job failed: %v", err)
	}

	if source.carts["cart-a"].stockCalls != 1 {
		t.Fatalf("expected cart-a checked once")
	}
	if source.carts["cart-b"].stockCalls != 0 {
		t.Fatalf("empty cart must be skipped")
	}
}

func TestExpiryJobCoversEmptyCartsToo(t *testing.T) {
	source := &fakeSource{
		order: []string{"cart-a", "cart-b"},
		carts: map[string]*fakeRevalidator{
			"cart-a": {expiredLines: 3},
			"cart-b": {empty: true},
		},
	}

	job, err := NewExpiryJob(ExpiryJobParams{Logger: testLogger(), Carts: source})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("job failed: %v", err)
	}

	// Expiry runs even on carts that look empty in memory so stale
	// snapshots eventually clear.
	if source.carts["cart-a"].expiryCalls != 1 || source.carts["cart-b"].expiryCalls != 1 {
		t.Fatalf("expected expiry on every cart")
	}
}

func TestExpiryJobEvictsDrainedCarts(t *testing.T) {
	source := &fakeSource{
		order: []string{"cart-live", "cart-dead"},
		carts: map[string]*fakeRevalidator{
			"cart-live": {expiredLines: 1},
			"cart-dead": {empty: true},
		},
	}

	job, err := NewExpiryJob(ExpiryJobParams{Logger: testLogger(), Carts: source})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("job failed: %v", err)
	}

	// Carts left with no lines are dropped from the registry so the worker
	// does not accumulate managers for abandoned carts.
	if len(source.evicted) != 1 || source.evicted[0] != "cart-dead" {
		t.Fatalf("expected cart-dead evicted, got %v", source.evicted)
	}
}

func TestJobsStopOnCanceledContext(t *testing.T) {
	source := &fakeSource{
		order: []string{"cart-a"},
		carts: map[string]*fakeRevalidator{"cart-a": {}},
	}

	job, err := NewPriceJob(PriceJobParams{Logger: testLogger(), Carts: source})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := job.Run(ctx); err == nil {
		t.Fatalf("expected error for canceled context")
	}
	if source.carts["cart-a"].validateCalls != 0 {
		t.Fatalf("no cart should be validated after cancel")
	}
}
