package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-rental-backend/internal/config"
	"vehicle-rental-backend/internal/jobs"
)

func TestNewScheduler(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{OverdueReturnReminders: "0 0 * * * *"}}

	s, err := NewScheduler(jobs.NewJobRunner(jobs.Dependencies{}, cfg))
	require.NoError(t, err)
	assert.True(t, s.IsRunning())
	assert.Len(t, s.cron.Entries(), 1)

	s.Start()
	s.Stop()
}

func TestNewScheduler_InvalidSchedule(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{OverdueReturnReminders: "every hour"}}

	_, err := NewScheduler(jobs.NewJobRunner(jobs.Dependencies{}, cfg))
	assert.ErrorContains(t, err, "register overdue return reminders")
}
