package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/storefront-labs/storefront-backend/pkg/logger"
)

const defaultOutboxRetention = 7 * 24 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPurger interface {
	DeletePublishedBefore(tx *gorm.DB, cutoff time.Time) (int64, error)
}

// OutboxRetentionJob purges outbox rows published longer ago than the
// retention window. Unpublished rows are never touched.
type OutboxRetentionJob struct {
	logg      *logger.Logger
	tx        txRunner
	outbox    outboxPurger
	retention time.Duration
	now       func() time.Time
}

func NewOutboxRetentionJob(logg *logger.Logger, tx txRunner, outbox outboxPurger, retention time.Duration) (*OutboxRetentionJob, error) {
	switch {
	case logg == nil:
		return nil, fmt.Errorf("logger required")
	case tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case outbox == nil:
		return nil, fmt.Errorf("outbox repository required")
	}
	if retention <= 0 {
		retention = defaultOutboxRetention
	}
	return &OutboxRetentionJob{logg: logg, tx: tx, outbox: outbox, retention: retention, now: time.Now}, nil
}

func (j *OutboxRetentionJob) Name() string { return "outbox-retention" }

func (j *OutboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	var deleted int64
	err := j.tx.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := j.outbox.DeletePublishedBefore(tx, cutoff)
		deleted = n
		return err
	})
	if err != nil {
		return fmt.Errorf("purge published outbox rows: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"deleted": deleted,
	}), "cron.outbox_purged")
	return nil
}
