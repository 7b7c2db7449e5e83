package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

// PurgeFunc deletes rows older than cutoff and returns how many went.
type PurgeFunc func(ctx context.Context, cutoff time.Time) (int64, error)

// RetentionJobParams configure a job that purges rows past a fixed age.
type RetentionJobParams struct {
	Name      string
	Logger    *logger.Logger
	Retention time.Duration
	Purge     PurgeFunc
}

type retentionJob struct {
	name      string
	logg      *logger.Logger
	retention time.Duration
	purge     PurgeFunc
	now       func() time.Time
}

func NewRetentionJob(params RetentionJobParams) (Job, error) {
	if params.Name == "" {
		return nil, fmt.Errorf("job name required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Purge == nil {
		return nil, fmt.Errorf("%s: purge func required", params.Name)
	}
	if params.Retention <= 0 {
		return nil, fmt.Errorf("%s: retention must be positive", params.Name)
	}
	return &retentionJob{
		name:      params.Name,
		logg:      params.Logger,
		retention: params.Retention,
		purge:     params.Purge,
		now:       time.Now,
	}, nil
}

// Days converts a day count from config into a retention window.
func Days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

func (j *retentionJob) Name() string { return j.name }

func (j *retentionJob) Run(ctx context.Context) (int64, error) {
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.purge(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", j.name, err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"retention":    j.retention.String(),
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "retention purge complete")
	return deleted, nil
}
