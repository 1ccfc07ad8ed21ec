package jobs

import (
	"context"
	"errors"

	"github.com/wonny/screener/backend/internal/enrich"
	"github.com/wonny/screener/backend/pkg/logger"
)

// Refresher reloads the shared snapshot
type Refresher interface {
	Refresh(ctx context.Context) error
}

// SnapshotRefreshJob keeps the API's enriched snapshot current
type SnapshotRefreshJob struct {
	store    Refresher
	schedule string
	logger   *logger.Logger
}

// NewSnapshotRefreshJob creates a refresh job on the given cron schedule
func NewSnapshotRefreshJob(store Refresher, schedule string, log *logger.Logger) *SnapshotRefreshJob {
	return &SnapshotRefreshJob{
		store:    store,
		schedule: schedule,
		logger:   log,
	}
}

func (j *SnapshotRefreshJob) Name() string     { return "snapshot_refresh" }
func (j *SnapshotRefreshJob) Schedule() string { return j.schedule }

// Run refreshes the snapshot. A refresh already started elsewhere counts as done.
func (j *SnapshotRefreshJob) Run(ctx context.Context) error {
	err := j.store.Refresh(ctx)
	if errors.Is(err, enrich.ErrRefreshInProgress) {
		j.logger.WithField("job", j.Name()).Debug("Refresh already running, skipped")
		return nil
	}
	return err
}
