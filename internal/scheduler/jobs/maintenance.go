package jobs

import (
	"context"
	"errors"

	"github.com/moner050/ddal-kkak/backend/internal/contracts"
	"github.com/moner050/ddal-kkak/backend/internal/retention"
	"github.com/moner050/ddal-kkak/backend/internal/screening"
	"github.com/moner050/ddal-kkak/backend/pkg/logger"
)

// RetentionJob prunes snapshot dates older than the retention window
type RetentionJob struct {
	pruner   *retention.Pruner
	schedule string
	logger   *logger.Logger
}

// NewRetentionJob creates a retention job running on schedule
func NewRetentionJob(pruner *retention.Pruner, schedule string, log *logger.Logger) *RetentionJob {
	return &RetentionJob{
		pruner:   pruner,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *RetentionJob) Name() string {
	return "retention_prune"
}

// Schedule returns the configured cron schedule (RETENTION_SCHEDULE)
func (j *RetentionJob) Schedule() string {
	return j.schedule
}

// Run executes the prune
func (j *RetentionJob) Run(ctx context.Context) error {
	j.logger.WithField("keep_days", j.pruner.KeepDays()).Debug("Starting scheduled retention prune")

	res, err := j.pruner.PruneExpired(ctx)
	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"cutoff":  contracts.FormatDate(res.Cutoff),
		"deleted": res.Deleted,
	}).Info("Retention prune completed")

	return nil
}

// StatsWarmupJob runs the statistics of the latest date on a schedule. It keeps
// the cached latest date fresh and surfaces a broken aggregate query in the
// job log before a client hits it.
type StatsWarmupJob struct {
	service *screening.Service
	logger  *logger.Logger
}

// NewStatsWarmupJob creates a new stats warmup job
func NewStatsWarmupJob(service *screening.Service, log *logger.Logger) *StatsWarmupJob {
	return &StatsWarmupJob{
		service: service,
		logger:  log,
	}
}

// Name returns the job name
func (j *StatsWarmupJob) Name() string {
	return "stats_warmup"
}

// Schedule returns the cron schedule (every 10 minutes)
func (j *StatsWarmupJob) Schedule() string {
	return "0 */10 * * * *"
}

// Run executes the warmup. An empty store is not a failure.
func (j *StatsWarmupJob) Run(ctx context.Context) error {
	summary, err := j.service.Stats(ctx)
	if errors.Is(err, contracts.ErrNoData) {
		j.logger.Debug("No snapshots yet, skipping stats warmup")
		return nil
	}
	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"date":  contracts.FormatDate(summary.Date),
		"total": summary.TotalStocks,
	}).Debug("Stats warmed up")

	return nil
}
