// Package jobs runs the periodic back-office tasks.
package jobs

import (
	"context"
	"fmt"
	"time"

	"spadesk/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Job is a unit of scheduled work. The context is cancelled when the
// scheduler stops.
type Job func(ctx context.Context) error

type Scheduler struct {
	cron   *cron.Cron
	log    *logger.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a scheduler that evaluates cron expressions in loc.
// Runs of the same job never overlap and a panicking job does not take the
// scheduler down.
func NewScheduler(loc *time.Location, log *logger.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	adapter := cronLogger{log: log}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
		),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers job under a standard five-field cron spec.
func (s *Scheduler) Add(name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		started := time.Now()
		s.log.Info("job started", "job", name)
		if err := job(s.ctx); err != nil {
			s.log.Error("job failed", "job", name, "duration", time.Since(started), "error", err)
			return
		}
		s.log.Info("job finished", "job", name, "duration", time.Since(started))
	})
	if err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}
	return nil
}

// Len reports the number of registered jobs.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("job scheduler started", "jobs", s.Len(), "location", s.cron.Location().String())
}

// Stop halts scheduling, cancels running jobs and waits for them to return
// or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
		s.log.Info("job scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for running jobs: %w", ctx.Err())
	}
}

type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
