package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/abhishyantkhare/marathon-trainer/internal/auth"
	"github.com/abhishyantkhare/marathon-trainer/internal/models"
	"github.com/abhishyantkhare/marathon-trainer/internal/strava"
	"github.com/gin-gonic/gin"
)

const defaultRunsLimit = 50

// RunResponse is one synced activity on the wire.
type RunResponse struct {
	ID                uint      `json:"id"`
	StravaActivityID  int64     `json:"strava_activity_id"`
	Name              string    `json:"name"`
	DistanceMeters    float64   `json:"distance_meters"`
	MovingTimeSeconds int       `json:"moving_time_seconds"`
	StartDate         time.Time `json:"start_date"`
	AveragePace       string    `json:"average_pace"`
	Type              string    `json:"type"`
}

// RunsListResponse carries one page of runs plus the total count.
type RunsListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Total int64         `json:"total"`
}

// SyncResponse reports the outcome of a Strava sync.
type SyncResponse struct {
	SyncedCount int    `json:"synced_count"`
	Message     string `json:"message"`
}

func (s *Server) handleListRuns(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}

	limit, err := positiveIntQuery(c, "limit", defaultRunsLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid limit"})
		return
	}
	offset, err := positiveIntQuery(c, "offset", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid offset"})
		return
	}

	ctx := c.Request.Context()
	runs, err := s.store.Runs.List(ctx, user.ID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list runs", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to load runs"})
		return
	}
	total, err := s.store.Runs.CountByUser(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to count runs", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to load runs"})
		return
	}

	resp := RunsListResponse{
		Runs:  make([]RunResponse, 0, len(runs)),
		Total: total,
	}
	for _, run := range runs {
		resp.Runs = append(resp.Runs, toRunResponse(run))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSyncRuns(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}

	count, err := s.syncer.SyncUser(c.Request.Context(), user)
	if errors.Is(err, strava.ErrNotConnected) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Strava not connected"})
		return
	}
	if err != nil {
		s.logger.Error("run sync failed", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("Failed to sync runs: %v", err)})
		return
	}

	c.JSON(http.StatusOK, SyncResponse{
		SyncedCount: count,
		Message:     fmt.Sprintf("Successfully synced %d new runs from Strava", count),
	})
}

func positiveIntQuery(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return parsed, nil
}

func toRunResponse(run models.Run) RunResponse {
	return RunResponse{
		ID:                run.ID,
		StravaActivityID:  run.StravaActivityID,
		Name:              run.Name,
		DistanceMeters:    run.DistanceMeters,
		MovingTimeSeconds: run.MovingTimeSeconds,
		StartDate:         run.StartDate,
		AveragePace:       run.AveragePace,
		Type:              run.Type,
	}
}
