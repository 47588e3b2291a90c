package worker

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TaskSyncRuns    = "runs:sync"
	TaskSyncAllRuns = "runs:sync_all"
)

// SyncRunsPayload identifies the user whose runs to pull. The job ID
// correlates log lines across enqueue and execution.
type SyncRunsPayload struct {
	UserID uint   `json:"user_id"`
	JobID  string `json:"job_id"`
}

// Package-level Asynq client (singleton)
var client *asynq.Client

// InitClient initializes the global Asynq client for task enqueueing.
// Must be called before any EnqueueX functions.
func InitClient(redisURL string) error {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return err
	}

	client = asynq.NewClient(opt)
	return nil
}

// CloseClient closes the Asynq client connection gracefully.
func CloseClient() error {
	if client != nil {
		return client.Close()
	}
	return nil
}

// EnqueueSyncRuns enqueues a background Strava sync for one user. The task
// retries up to 3 times and is retained for a day for inspection.
func EnqueueSyncRuns(userID uint) error {
	payload, err := json.Marshal(SyncRunsPayload{
		UserID: userID,
		JobID:  uuid.New().String(),
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(
		TaskSyncRuns,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
		asynq.Retention(24*time.Hour),
	)

	_, err = client.Enqueue(task)
	return err
}
