// internal/app/system/workers/runner.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/clubreviews/internal/app/system/tasks"
	"go.uber.org/zap"
)

// Runner runs each job on its own ticker until Stop is called.
type Runner struct {
	jobs    []tasks.Job
	log     *zap.Logger
	timeout time.Duration
	stopCh  chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewRunner creates a runner. timeout bounds a single run of any job.
func NewRunner(logger *zap.Logger, timeout time.Duration, jobs ...tasks.Job) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		jobs:    jobs,
		log:     logger,
		timeout: timeout,
		stopCh:  make(chan struct{}),
	}
}

// Start launches one goroutine per job. Jobs without a positive interval are skipped.
func (w *Runner) Start() {
	for _, j := range w.jobs {
		if j.Interval <= 0 || j.Run == nil {
			w.log.Warn("background job disabled", zap.String("job", j.Name))
			continue
		}
		w.wg.Add(1)
		go w.loop(j)
		w.log.Info("background job started",
			zap.String("job", j.Name),
			zap.Duration("interval", j.Interval))
	}
}

// Stop signals every job to stop and waits for in-flight runs to finish.
// It is safe to call more than once.
func (w *Runner) Stop() {
	w.once.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("background jobs stopped")
	})
}

func (w *Runner) loop(j tasks.Job) {
	defer w.wg.Done()

	if j.RunAtStart {
		w.runOnce(j)
	}

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.runOnce(j)
		}
	}
}

func (w *Runner) runOnce(j tasks.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	start := time.Now()
	if err := j.Run(ctx); err != nil {
		w.log.Error("background job failed",
			zap.String("job", j.Name),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
	}
}
