package jobs

import (
	"vehicle-rental-backend/internal/config"
	"vehicle-rental-backend/internal/logger"
	"vehicle-rental-backend/internal/repository"
	"vehicle-rental-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	deps   Dependencies
	config *config.Config
}

// Dependencies holds the collaborators needed by jobs
type Dependencies struct {
	Bookings repository.BookingRepository
	Vehicles repository.VehicleRepository
	Notifier service.Notifier
	Clock    service.Clock
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(deps Dependencies, cfg *config.Config) *JobRunner {
	if deps.Clock == nil {
		deps.Clock = service.SystemClock()
	}
	return &JobRunner{
		deps:   deps,
		config: cfg,
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.SendOverdueReturnReminders()
}
