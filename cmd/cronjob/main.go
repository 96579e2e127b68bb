package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"vehicle-rental-backend/internal/bootstrap"
	"vehicle-rental-backend/internal/config"
	"vehicle-rental-backend/internal/jobs"
	"vehicle-rental-backend/internal/logger"
	"vehicle-rental-backend/internal/scheduler"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'send-overdue-return-reminders', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Vehicle Rental Cronjob Runner...", "log_level", cfg.Log.Level)

	ctx := context.Background()

	// Initialize Repositories
	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open store", "error", err)
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	notifier, closeNotifier, err := bootstrap.Notifier(ctx, cfg, store)
	if err != nil {
		logger.Error("Failed to initialize notifications", "error", err)
		log.Fatalf("Failed to initialize notifications: %v", err)
	}
	defer closeNotifier()

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(jobs.Dependencies{
		Bookings: store.Bookings,
		Vehicles: store.Vehicles,
		Notifier: notifier,
	}, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if !runJobOnce(jobRunner, *runOnce) {
			closeNotifier()
			store.Close()
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		logger.Error("Failed to initialize scheduler", "error", err)
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and reports whether the name was known
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) bool {
	switch jobName {
	case "send-overdue-return-reminders":
		jobRunner.SendOverdueReturnReminders()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - send-overdue-return-reminders\n")
		fmt.Printf("  - all\n")
		return false
	}
	return true
}
