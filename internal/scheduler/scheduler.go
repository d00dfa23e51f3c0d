// Package scheduler drives the reminder scan and the escalation sweep on
// gocron jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/neshyamekala/Medicall/internal"
)

type Scanner interface {
	Scan(ctx context.Context) int
}

type Sweeper interface {
	Sweep(ctx context.Context) int
}

// Scheduler owns two jobs: a scan every minute and an escalation sweep at a
// fixed interval. Neither job overlaps a still-running run of itself.
type Scheduler struct {
	cron    *gocron.Scheduler
	scanJob *gocron.Job
	ctx     context.Context
	cancel  context.CancelFunc
	logger  internal.Logger
}

func New(loc *time.Location, scanner Scanner, sweeper Sweeper, escalationInterval time.Duration, logger internal.Logger) (*Scheduler, error) {
	if escalationInterval <= 0 {
		return nil, fmt.Errorf("escalation interval must be positive, got %s", escalationInterval)
	}
	if loc == nil {
		loc = time.Local
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:   gocron.NewScheduler(loc),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
	s.cron.SingletonModeAll()

	// Scans fire at second zero so each run reads a distinct minute.
	scanJob, err := s.cron.Cron("* * * * *").Tag("scan").Do(s.guard("scan", func(ctx context.Context) int {
		return scanner.Scan(ctx)
	}))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("schedule scan job: %w", err)
	}
	s.scanJob = scanJob

	if _, err := s.cron.Every(escalationInterval).WaitForSchedule().Tag("escalate").Do(s.guard("escalate", func(ctx context.Context) int {
		return sweeper.Sweep(ctx)
	})); err != nil {
		cancel()
		return nil, fmt.Errorf("schedule escalation job: %w", err)
	}

	return s, nil
}

// guard keeps a panicking run from taking the scheduler down with it.
func (s *Scheduler) guard(name string, run func(ctx context.Context) int) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Errorf("scheduler: %s job panicked: %v", name, r)
			}
		}()
		if s.ctx.Err() != nil {
			return
		}
		n := run(s.ctx)
		s.logger.Debugf("scheduler: %s job finished (%d)", name, n)
	}
}

func (s *Scheduler) Jobs() []*gocron.Job {
	return s.cron.Jobs()
}

// NextScan reports when the scan job runs next. It is zero before Start.
func (s *Scheduler) NextScan() time.Time {
	return s.scanJob.NextRun()
}

// Start runs the jobs in the background. The first scan happens at the next
// minute boundary; the escalation sweep waits one full interval.
func (s *Scheduler) Start() {
	s.cron.StartAsync()
	s.logger.Info("scheduler started")
}

// Stop cancels the job context and halts the scheduler. Runs already in
// flight see a cancelled context.
func (s *Scheduler) Stop() {
	s.cancel()
	s.cron.Stop()
	s.logger.Info("scheduler stopped")
}
