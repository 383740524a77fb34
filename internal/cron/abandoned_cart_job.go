package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/storefront-labs/storefront-backend/pkg/logger"
)

const defaultAbandonedCartAge = 30 * 24 * time.Hour

type cartAbandoner interface {
	MarkAbandonedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AbandonedCartJob flips active carts with no activity for MaxAge to
// abandoned. The next cart read for that user opens a fresh active cart.
type AbandonedCartJob struct {
	logg   *logger.Logger
	carts  cartAbandoner
	maxAge time.Duration
	now    func() time.Time
}

func NewAbandonedCartJob(logg *logger.Logger, carts cartAbandoner, maxAge time.Duration) (*AbandonedCartJob, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if maxAge <= 0 {
		maxAge = defaultAbandonedCartAge
	}
	return &AbandonedCartJob{logg: logg, carts: carts, maxAge: maxAge, now: time.Now}, nil
}

func (j *AbandonedCartJob) Name() string { return "abandoned-carts" }

func (j *AbandonedCartJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxAge)
	marked, err := j.carts.MarkAbandonedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("mark abandoned carts: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff": cutoff,
		"marked": marked,
	}), "cron.abandoned_carts")
	return nil
}
