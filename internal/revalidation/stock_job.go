package revalidation

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/tmrivera/cardhaven-backend/pkg/logger"
	"github.com/tmrivera/cardhaven-backend/pkg/metrics"
)

// StockJobParams configure the stock revalidation job.
type StockJobParams struct {
	Logger  *logger.Logger
	Carts   managerSource
	Metrics *metrics.RevalidationJobMetrics
}

// NewStockJob builds the job that re-checks live stock for every cart line.
func NewStockJob(params StockJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart source required")
	}
	return &stockJob{
		logg:    params.Logger,
		carts:   params.Carts,
		metrics: params.Metrics,
	}, nil
}

type stockJob struct {
	logg    *logger.Logger
	carts   managerSource
	metrics *metrics.RevalidationJobMetrics
}

func (j *stockJob) Name() string { return "stock-revalidation" }

func (j *stockJob) Run(ctx context.Context) error {
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
		count, err := mgr.CheckStock(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("check stock for cart %s: %w", cartID, err))
			continue
		}
		flagged += count
	}

	j.metrics.AddFlagged("stock", flagged)
	logCtx := j.logg.WithFields(ctx, map[string]any{"carts": len(cartIDs), "flagged": flagged})
	j.logg.Info(logCtx, "stock revalidation loop complete")
	return multierr.Combine(errs...)
}
