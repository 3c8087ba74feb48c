package revalidation

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/tmrivera/cardhaven-backend/internal/cart"
	"github.com/tmrivera/cardhaven-backend/pkg/logger"
	"github.com/tmrivera/cardhaven-backend/pkg/metrics"
)

// cartRevalidator is the slice of a cart manager the jobs drive.
type cartRevalidator interface {
	ValidateCart(ctx context.Context) (int, error)
	CheckStock(ctx context.Context) (int, error)
	ClearExpired(ctx context.Context) (int, error)
	Empty() bool
}

// managerSource enumerates live carts and resolves their managers.
type managerSource interface {
	LiveCartIDs(ctx context.Context) ([]string, error)
	Revalidator(ctx context.Context, cartID string) (cartRevalidator, error)
	Evict(cartID string)
}

// Directory adapts the cart registry to the job-facing manager source.
type Directory struct {
	Registry *cart.Registry
}

func (d Directory) LiveCartIDs(ctx context.Context) ([]string, error) {
	return d.Registry.LiveCartIDs(ctx)
}

func (d Directory) Revalidator(ctx context.Context, cartID string) (cartRevalidator, error) {
	return d.Registry.Manager(ctx, cartID)
}

func (d Directory) Evict(cartID string) {
	d.Registry.Evict(cartID)
}

// PriceJobParams configure the price revalidation job.
type PriceJobParams struct {
	Logger  *logger.Logger
	Carts   managerSource
	Metrics *metrics.RevalidationJobMetrics
}

// NewPriceJob builds the job that re-checks live prices for every cart line.
func NewPriceJob(params PriceJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart source required")
	}
	return &priceJob{
		logg:    params.Logger,
		carts:   params.Carts,
		metrics: params.Metrics,
	}, nil
}

type priceJob struct {
	logg    *logger.Logger
	carts   managerSource
	metrics *metrics.RevalidationJobMetrics
}

func (j *priceJob) Name() string { return "price-revalidation" }

func (j *priceJob) Run(ctx context.Context) error {
	cartIDs, err := j.carts.LiveCartIDs(ctx)
	if err != nil {
		return fmt.Errorf("list live carts: %w", err)
	}

	var errs []error
	flagged := 0
	for _, cartID := range cartIDs {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		mgr, err := j.carts.Revalidator(ctx, cartID)
		if err != nil {
			errs = append(errs, fmt.Errorf("cart %s: %w", cartID, err))
			continue
		}
		if mgr.Empty() {
			continue
		}
		count, err := mgr.ValidateCart(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("validate cart %s: %w", cartID, err))
			continue
		}
		flagged += count
	}

	j.metrics.AddFlagged("price", flagged)
	logCtx := j.logg.WithFields(ctx, map[string]any{"carts": len(cartIDs), "flagged": flagged})
	j.logg.Info(logCtx, "price revalidation loop complete")
	return multierr.Combine(errs...)
}
