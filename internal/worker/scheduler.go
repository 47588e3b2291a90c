package worker

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/abhishyantkhare/marathon-trainer/internal/config"
	"github.com/abhishyantkhare/marathon-trainer/internal/logging"
	"github.com/hibiken/asynq"
)

// StartScheduler creates and starts an Asynq Scheduler that fires the nightly
// runs:sync_all fan-out. Returns a stop function for graceful shutdown.
func StartScheduler(cfg *config.Config) (stop func(), err error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	// The nightly cron runs in UTC.
	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
			Logger:   &asynqLoggerAdapter{logger: logger},
		},
	)

	task := asynq.NewTask(
		TaskSyncAllRuns,
		nil, // Empty payload - handler queries all connected users
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute), // Longer timeout for the fan-out
		asynq.Retention(24*time.Hour),
		asynq.Unique(24*time.Hour), // Prevent duplicate if scheduler runs twice
	)

	entryID, err := scheduler.Register(cfg.SyncSchedule, task)
	if err != nil {
		return nil, fmt.Errorf("failed to register sync schedule: %w", err)
	}

	// Start scheduler (non-blocking)
	if err := scheduler.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	slog.Info(
		"Scheduler started",
		"schedule", cfg.SyncSchedule,
		"entry_id", entryID,
	)

	return func() { scheduler.Shutdown() }, nil
}
