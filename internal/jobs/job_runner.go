package jobs

import (
	"context"
	"fmt"
	"time"

	"equiprent-backend/internal/config"
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/metrics"
	"equiprent-backend/internal/notify"
	"equiprent-backend/internal/repository"
	"equiprent-backend/internal/service"
)

// Job names accepted by RunByName and the cronjob -run-once flag.
const (
	JobMarkOverdueRentals   = "mark-overdue-rentals"
	JobReconcileEquipment   = "reconcile-equipment"
	JobSendOverdueReminders = "send-overdue-reminders"
	JobAll                  = "all"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	store    repository.Store
	services *Services
	notifier notify.Notifier
	config   *config.Config
	now      func() time.Time
}

// Services holds the service dependencies needed by jobs
type Services struct {
	Rental    service.RentalService
	Equipment service.EquipmentService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(store repository.Store, services *Services, notifier notify.Notifier, cfg *config.Config) *JobRunner {
	return &JobRunner{
		store:    store,
		services: services,
		notifier: notifier,
		config:   cfg,
		now:      time.Now,
	}
}

// Config returns the configuration the runner was built with.
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery and records the outcome.
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) (err error) {
	ctx := context.Background()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
			err = fmt.Errorf("job %s panicked: %v", jobName, r)
		}
		metrics.IncJobRun(jobName, err)
	}()

	logger.Info("Starting job", "job", jobName)
	if err = jobFunc(ctx); err != nil {
		logger.Error("Job failed", "job", jobName, "error", err, "duration", time.Since(start))
		return err
	}
	logger.Info("Job completed", "job", jobName, "duration", time.Since(start))
	return nil
}

// MarkOverdueRentals moves Active rentals past their end date to Overdue.
func (jr *JobRunner) MarkOverdueRentals() error {
	return jr.runWithRecovery(JobMarkOverdueRentals, func(ctx context.Context) error {
		today := domain.TruncateDate(jr.now().UTC())
		marked, err := jr.services.Rental.MarkOverdue(ctx, today)
		if err != nil {
			return fmt.Errorf("mark overdue rentals: %w", err)
		}
		logger.Info("Marked rentals as overdue", "count", len(marked), "as_of", today.Format(domain.DateLayout))
		for _, id := range marked {
			logger.Debug("Marked rental as overdue", "rental_id", id)
		}
		return nil
	})
}

// ReconcileEquipment recomputes every unit's status from its rentals and repairs.
func (jr *JobRunner) ReconcileEquipment() error {
	return jr.runWithRecovery(JobReconcileEquipment, func(ctx context.Context) error {
		res, err := jr.services.Equipment.ReconcileAll(ctx)
		if err != nil {
			return fmt.Errorf("reconcile equipment: %w", err)
		}
		logger.Info("Equipment reconciled", "checked", res.Checked, "changed", res.Changed)
		return nil
	})
}

// SendOverdueReminders notifies the client of every Overdue rental.
// A failed delivery is logged and does not stop the remaining reminders.
func (jr *JobRunner) SendOverdueReminders() error {
	return jr.runWithRecovery(JobSendOverdueReminders, func(ctx context.Context) error {
		reminders, err := jr.store.Rentals().ListOverdueReminders(ctx)
		if err != nil {
			return fmt.Errorf("list overdue reminders: %w", err)
		}

		sent, failed := 0, 0
		for _, r := range reminders {
			if err := jr.notifier.SendOverdueReminder(ctx, r); err != nil {
				logger.Error("Failed to send overdue reminder", "rental_id", r.RentalID, "client_id", r.ClientID, "error", err)
				failed++
				continue
			}
			sent++
		}
		logger.Info("Overdue reminders processed", "sent", sent, "failed", failed)
		if failed > 0 && sent == 0 {
			return fmt.Errorf("all %d overdue reminders failed", failed)
		}
		return nil
	})
}

// RunAll runs every job in dependency order: overdue marking feeds both
// reconciliation and reminders.
func (jr *JobRunner) RunAll() error {
	var firstErr error
	for _, job := range []func() error{jr.MarkOverdueRentals, jr.ReconcileEquipment, jr.SendOverdueReminders} {
		if err := job(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// RunByName runs a single job, or all of them for JobAll.
func (jr *JobRunner) RunByName(name string) error {
	switch name {
	case JobMarkOverdueRentals:
		return jr.MarkOverdueRentals()
	case JobReconcileEquipment:
		return jr.ReconcileEquipment()
	case JobSendOverdueReminders:
		return jr.SendOverdueReminders()
	case JobAll:
		return jr.RunAll()
	default:
		return fmt.Errorf("unknown job %q", name)
	}
}
