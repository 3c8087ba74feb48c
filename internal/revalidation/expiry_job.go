package revalidation

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/tmrivera/cardhaven-backend/pkg/logger"
	"github.com/tmrivera/cardhaven-backend/pkg/metrics"
)

// ExpiryJobParams configure the expired line cleanup job.
type ExpiryJobParams struct {
	Logger  *logger.Logger
	Carts   managerSource
	Metrics *metrics.RevalidationJobMetrics
}

// NewExpiryJob builds the job that purges cart lines past the retention window.
func NewExpiryJob(params ExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart source required")
	}
	return &expiryJob{
		logg:    params.Logger,
		carts:   params.Carts,
		metrics: params.Metrics,
	}, nil
}

type expiryJob struct {
	logg    *logger.Logger
	carts   managerSource
	metrics *metrics.RevalidationJobMetrics
}

func (j *expiryJob) Name() string { return "cart-expiry" }

func (j *expiryJob) Run(ctx context.Context) error {
	cartIDs, err := j.carts.LiveCartIDs(ctx)
	if err != nil {
		return fmt.Errorf("list live carts: %w", err)
	}

	var errs []error
	purged := 0
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
		count, err := mgr.ClearExpired(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("clear expired for cart %s: %w", cartID, err))
			continue
		}
		purged += count
		// A cart with nothing left holds no state worth keeping resident.
		if mgr.Empty() {
			j.carts.Evict(cartID)
		}
	}

	j.metrics.AddPurged("expired", purged)
	logCtx := j.logg.WithFields(ctx, map[string]any{"carts": len(cartIDs), "purged": purged})
	j.logg.Info(logCtx, "cart expiry loop complete")
	return multierr.Combine(errs...)
}
