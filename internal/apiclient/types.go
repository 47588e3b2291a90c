package apiclient

import (
	"encoding/json"
	"time"
)

// User is the authenticated athlete as returned by /auth/me.
type User struct {
	ID             uint      `json:"id"`
	StravaID       int64     `json:"strava_id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	ProfilePicture string    `json:"profile_picture"`
	CreatedAt      time.Time `json:"created_at"`
	HasProfile     bool      `json:"has_profile"`
}

// Profile is the athlete's race goal.
type Profile struct {
	ID              uint      `json:"id"`
	RaceDate        time.Time `json:"race_date"`
	GoalTimeMinutes int       `json:"goal_time_minutes"`
	FitnessLevel    string    `json:"fitness_level"`
}

// ProfileInput is the create-or-update payload for the profile endpoint.
type ProfileInput struct {
	RaceDate        time.Time `json:"race_date"`
	GoalTimeMinutes int       `json:"goal_time_minutes"`
	FitnessLevel    string    `json:"fitness_level"`
}

// Run is one synced Strava activity.
type Run struct {
	ID                uint      `json:"id"`
	StravaActivityID  int64     `json:"strava_activity_id"`
	Name              string    `json:"name"`
	DistanceMeters    float64   `json:"distance_meters"`
	MovingTimeSeconds int       `json:"moving_time_seconds"`
	StartDate         time.Time `json:"start_date"`
	AveragePace       string    `json:"average_pace"`
	Type              string    `json:"type"`
}

// RunsList is one page of runs plus the total count on the server.
type RunsList struct {
	Runs  []Run `json:"runs"`
	Total int64 `json:"total"`
}

// SyncResult reports a completed Strava sync.
type SyncResult struct {
	SyncedCount int    `json:"synced_count"`
	Message     string `json:"message"`
}

// Plan is a stored training plan with its raw document. Callers parse
// PlanJSON through plandoc.
type Plan struct {
	ID        uint            `json:"id"`
	PlanJSON  json.RawMessage `json:"plan_json"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
