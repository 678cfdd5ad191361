package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/stashspot/stashspot-backend/pkg/logger"
)

const ledgerRetentionDays = 90

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ledgerPurger interface {
	PurgeOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type LedgerRetentionJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Ledger    ledgerPurger
	Retention int
}

// NewLedgerRetentionJob prunes processed-event rows past the retention
// window. Providers stop redelivering long before the window closes, so aged
// rows only cost storage.
func NewLedgerRetentionJob(params LedgerRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = ledgerRetentionDays
	}
	return &ledgerRetentionJob{
		logg:      params.Logger,
		db:        params.DB,
		ledger:    params.Ledger,
		retention: retention,
		now:       time.Now,
	}, nil
}

type ledgerRetentionJob struct {
	logg      *logger.Logger
	db        txRunner
	ledger    ledgerPurger
	retention int
	now       func() time.Time
}

func (j *ledgerRetentionJob) Name() string { return "ledger-retention" }

func (j *ledgerRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.ledger.PurgeOlderThan(ctx, tx, cutoff)
		if err != nil {
			return err
		}
		deleted = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("ledger retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "ledger retention cleanup complete")
	return nil
}
