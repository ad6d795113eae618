package scheduler

import (
	"fmt"
	"time"

	"equiprent-backend/internal/config"
	"equiprent-backend/internal/jobs"
	"equiprent-backend/internal/logger"

	"github.com/robfig/cron/v3"
)

// Runner is the set of jobs the scheduler triggers.
type Runner interface {
	MarkOverdueRentals() error
	ReconcileEquipment() error
	SendOverdueReminders() error
}

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs Runner
}

// NewScheduler creates a scheduler and registers every job from cfg.
// An invalid cron spec fails construction rather than silently skipping the job.
func NewScheduler(runner Runner, cfg config.SchedulerConfig) (*Scheduler, error) {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
		// A slow sweep must not overlap with its next tick.
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	s := &Scheduler{
		cron: c,
		jobs: runner,
	}
	if err := s.registerJobs(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) registerJobs(cfg config.SchedulerConfig) error {
	entries := []struct {
		name string
		spec string
		run  func() error
	}{
		{jobs.JobMarkOverdueRentals, cfg.MarkOverdueRentals, s.jobs.MarkOverdueRentals},
		{jobs.JobReconcileEquipment, cfg.ReconcileEquipment, s.jobs.ReconcileEquipment},
		{jobs.JobSendOverdueReminders, cfg.SendOverdueReminders, s.jobs.SendOverdueReminders},
	}

	for _, e := range entries {
		run := e.run
		if _, err := s.cron.AddFunc(e.spec, func() { _ = run() }); err != nil {
			return fmt.Errorf("register %s job with spec %q: %w", e.name, e.spec, err)
		}
		logger.Info("Registered cron job", "job", e.name, "spec", e.spec)
	}
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
}

// Stop waits for running jobs to finish and stops the scheduler.
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
