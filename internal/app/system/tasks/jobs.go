// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Job is a unit of periodic background work.
type Job struct {
	Name     string
	Interval time.Duration
	// RunAtStart runs the job once immediately instead of waiting one interval.
	RunAtStart bool
	Run        func(ctx context.Context) error
}

// StatsRefresher recomputes and stores the organization stats map.
// *stats.Cached satisfies it.
type StatsRefresher interface {
	Warm(ctx context.Context) (int, error)
}

// StatsWarmJob keeps the stats cache populated so listing requests rarely
// pay for the aggregation pipeline themselves.
func StatsWarmJob(r StatsRefresher, logger *zap.Logger, interval time.Duration) Job {
	return Job{
		Name:       "stats-warm",
		Interval:   interval,
		RunAtStart: true,
		Run: func(ctx context.Context) error {
			n, err := r.Warm(ctx)
			if err != nil {
				return err
			}
			logger.Debug("stats cache warmed", zap.Int("organizations", n))
			return nil
		},
	}
}
