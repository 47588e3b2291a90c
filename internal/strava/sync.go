package strava

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abhishyantkhare/marathon-trainer/internal/format"
	"github.com/abhishyantkhare/marathon-trainer/internal/models"
	"github.com/abhishyantkhare/marathon-trainer/internal/store"
)

const (
	syncPerPage  = 50
	syncMaxPages = 10 // safety limit, 500 activities per sync
)

// ErrNotConnected means the user has no Strava token pair to sync with.
var ErrNotConnected = errors.New("strava not connected")

// runTypes are the activity types that count as runs.
var runTypes = map[string]bool{
	"Run":        true,
	"TrailRun":   true,
	"VirtualRun": true,
}

// Syncer pulls an athlete's activities into the runs table.
type Syncer struct {
	client *Client
	users  store.Users
	runs   store.Runs
	logger *slog.Logger
}

// NewSyncer creates a Syncer.
func NewSyncer(client *Client, users store.Users, runs store.Runs, logger *slog.Logger) *Syncer {
	return &Syncer{client: client, users: users, runs: runs, logger: logger}
}

// SyncUser fetches new activities for the user, keeps the run types, skips
// already-synced activity IDs and returns how many runs were inserted.
func (s *Syncer) SyncUser(ctx context.Context, user *models.User) (int, error) {
	if !user.StravaConnected() {
		return 0, ErrNotConnected
	}

	accessToken, err := s.ensureValidToken(ctx, user)
	if err != nil {
		return 0, err
	}

	// Only ask Strava for activities newer than the latest synced run.
	var after int64
	latest, err := s.runs.LatestByUser(ctx, user.ID)
	switch {
	case err == nil:
		after = latest.StartDate.Unix()
	case !errors.Is(err, store.ErrNotFound):
		return 0, fmt.Errorf("failed to find latest run: %w", err)
	}

	synced := 0
	for page := 1; page <= syncMaxPages; page++ {
		activities, err := s.client.ListActivities(ctx, accessToken, page, syncPerPage, after)
		if err != nil {
			return synced, err
		}
		if len(activities) == 0 {
			break
		}

		for _, activity := range activities {
			if !runTypes[activity.Type] {
				continue
			}

			exists, err := s.runs.ExistsByActivityID(ctx, activity.ID)
			if err != nil {
				return synced, err
			}
			if exists {
				continue
			}

			run := &models.Run{
				UserID:            user.ID,
				StravaActivityID:  activity.ID,
				Name:              activity.Name,
				DistanceMeters:    activity.Distance,
				MovingTimeSeconds: activity.MovingTime,
				StartDate:         activity.StartDate,
				AveragePace:       format.Pace(activity.Distance, activity.MovingTime),
				Type:              activity.Type,
			}
			if err := s.runs.Create(ctx, run); err != nil {
				return synced, err
			}
			synced++
		}

		if len(activities) < syncPerPage {
			break
		}
	}

	s.logger.Info("strava sync finished", "user_id", user.ID, "synced", synced)
	return synced, nil
}

// ensureValidToken refreshes the token pair when it has expired and persists
// the new triple before returning a usable access token.
func (s *Syncer) ensureValidToken(ctx context.Context, user *models.User) (string, error) {
	if user.StravaTokenExpiresAt == 0 || user.StravaTokenExpiresAt >= time.Now().Unix() {
		return user.StravaAccessToken, nil
	}

	tokens, err := s.client.RefreshToken(ctx, user.StravaRefreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}

	user.StravaAccessToken = tokens.AccessToken
	user.StravaRefreshToken = tokens.RefreshToken
	user.StravaTokenExpiresAt = tokens.ExpiresAt
	if err := s.users.Save(ctx, user); err != nil {
		return "", fmt.Errorf("failed to persist refreshed tokens: %w", err)
	}

	s.logger.Info("strava token refreshed", "user_id", user.ID)
	return user.StravaAccessToken, nil
}
