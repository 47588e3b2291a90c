// Package worker runs background Strava syncs over asynq: per-user runs:sync
// tasks and the nightly runs:sync_all fan-out.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abhishyantkhare/marathon-trainer/internal/config"
	"github.com/abhishyantkhare/marathon-trainer/internal/logging"
	"github.com/abhishyantkhare/marathon-trainer/internal/models"
	"github.com/abhishyantkhare/marathon-trainer/internal/store"
	"github.com/abhishyantkhare/marathon-trainer/internal/strava"
	"github.com/hibiken/asynq"
)

// RunSyncer pulls new Strava activities for one user.
type RunSyncer interface {
	SyncUser(ctx context.Context, user *models.User) (int, error)
}

// enqueueDeduper remembers recent per-user enqueues so a re-fired fan-out
// cannot double-enqueue inside the dedupe window.
type enqueueDeduper interface {
	MarkIfStale(ctx context.Context, userID uint) (bool, error)
}

// asynqLoggerAdapter wraps slog.Logger to implement asynq.Logger interface
type asynqLoggerAdapter struct {
	logger *slog.Logger
}

func (a *asynqLoggerAdapter) Debug(args ...interface{}) {
	a.logger.Debug(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Info(args ...interface{}) {
	a.logger.Info(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Warn(args ...interface{}) {
	a.logger.Warn(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Error(args ...interface{}) {
	a.logger.Error(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Fatal(args ...interface{}) {
	a.logger.Error(fmt.Sprint(args...))
	panic(fmt.Sprint(args...))
}

// Run starts the Asynq worker server and blocks until shutdown signal.
// Use this for standalone worker mode.
func Run(cfg *config.Config, users store.Users, syncer RunSyncer) error {
	srv, mux, err := newServer(cfg, users, syncer)
	if err != nil {
		return err
	}

	// Note: the scheduler is started separately in main.go worker mode and
	// deferred there for shutdown coordination. Run blocks and handles its
	// own signal interception.
	return srv.Run(mux)
}

// Start starts the Asynq worker in non-blocking mode and returns a stop function.
// Use this for embedded mode so the caller can coordinate shutdown.
func Start(cfg *config.Config, users store.Users, syncer RunSyncer) (stop func(), err error) {
	srv, mux, err := newServer(cfg, users, syncer)
	if err != nil {
		return nil, err
	}
	if err := srv.Start(mux); err != nil {
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}
	return func() { srv.Shutdown() }, nil
}

func newServer(cfg *config.Config, users store.Users, syncer RunSyncer) (*asynq.Server, *asynq.ServeMux, error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:     5,
			ShutdownTimeout: 30 * time.Second,
			ErrorHandler:    asynq.ErrorHandlerFunc(makeErrorHandler(logger)),
			Logger:          &asynqLoggerAdapter{logger: logger},
		},
	)

	// Dedicated Redis client for the fan-out's last-enqueue cache, separate
	// from the Asynq internal connection.
	dedupe, err := newSyncDedupe(cfg.RedisURL, cfg.SyncDedupeTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create dedupe Redis client: %w", err)
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskSyncRuns, handleSyncRuns(logger, users, syncer))
	mux.HandleFunc(TaskSyncAllRuns, handleSyncAllRuns(logger, users, dedupe, EnqueueSyncRuns))

	logger.Info("Worker starting", "concurrency", 5, "redis", cfg.RedisURL)
	return srv, mux, nil
}

// handleSyncRuns processes a per-user sync task through the shared sync
// service.
func handleSyncRuns(logger *slog.Logger, users store.Users, syncer RunSyncer) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload SyncRunsPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			// Invalid payload - don't retry
			return fmt.Errorf("invalid payload: %w", asynq.SkipRetry)
		}

		user, err := users.GetByID(ctx, payload.UserID)
		if errors.Is(err, store.ErrNotFound) {
			// User deleted since enqueue - don't retry
			logger.Error("User not found", "user_id", payload.UserID, "job_id", payload.JobID)
			return fmt.Errorf("user not found: %w", asynq.SkipRetry)
		}
		if err != nil {
			// Database error - retryable
			return fmt.Errorf("failed to fetch user: %w", err)
		}

		logger.Info(
			"Processing runs:sync task",
			"user_id", user.ID,
			"job_id", payload.JobID,
		)

		count, err := syncer.SyncUser(ctx, user)
		if errors.Is(err, strava.ErrNotConnected) {
			// Tokens were removed since enqueue. Nothing to retry.
			logger.Warn("Strava not connected, skipping sync", "user_id", user.ID, "job_id", payload.JobID)
			return fmt.Errorf("strava not connected: %w", asynq.SkipRetry)
		}
		if err != nil {
			return fmt.Errorf("sync failed for user %d: %w", user.ID, err)
		}

		logger.Info(
			"Run sync completed",
			"user_id", user.ID,
			"job_id", payload.JobID,
			"synced", count,
		)
		return nil
	}
}

// handleSyncAllRuns fans the nightly sync out to every Strava-connected user,
// skipping users enqueued recently.
func handleSyncAllRuns(logger *slog.Logger, users store.Users, dedupe enqueueDeduper, enqueue func(userID uint) error) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		connected, err := users.ListStravaConnected(ctx)
		if err != nil {
			return fmt.Errorf("failed to list connected users: %w", err)
		}

		logger.Info("Processing runs:sync_all task", "users", len(connected))

		var enqueued, skipped int
		for i := range connected {
			user := &connected[i]

			stale, err := dedupe.MarkIfStale(ctx, user.ID)
			if err != nil {
				// Fail open: the enqueue itself surfaces Redis trouble.
				logger.Error("Dedupe check failed", "user_id", user.ID, "error", err)
				stale = true
			}
			if !stale {
				skipped++
				continue
			}

			if err := enqueue(user.ID); err != nil {
				logger.Error("Failed to enqueue sync", "user_id", user.ID, "error", err)
				continue
			}
			enqueued++
		}

		logger.Info(
			"Nightly sync fan-out complete",
			"enqueued", enqueued,
			"skipped", skipped,
		)
		return nil
	}
}

// makeErrorHandler creates an error handler function with logger closure.
func makeErrorHandler(logger *slog.Logger) func(context.Context, *asynq.Task, error) {
	return func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)

		logger.Error(
			"Task execution failed",
			"task_type", task.Type(),
			"error", err.Error(),
			"retry_count", retried,
			"max_retry", maxRetry,
		)

		// Final failure moves the task to the dead letter queue.
		if retried >= maxRetry {
			logger.Error(
				"Task moved to dead letter queue (all retries exhausted)",
				"task_type", task.Type(),
				"payload", string(task.Payload()),
			)
		}
	}
}
