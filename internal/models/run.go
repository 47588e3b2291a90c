package models

import (
	"time"

	"gorm.io/gorm"
)

// Run is a single Strava activity synced into the local history.
type Run struct {
	gorm.Model
	UserID            uint   `gorm:"not null;index"`
	User              User   `gorm:"constraint:OnDelete:CASCADE;"`
	StravaActivityID  int64  `gorm:"uniqueIndex:idx_runs_activity_not_deleted,where:deleted_at IS NULL;not null"`
	Name              string `gorm:"not null;default:''"`
	DistanceMeters    float64
	MovingTimeSeconds int
	StartDate         time.Time `gorm:"not null;index"`
	AveragePace       string    // e.g. "5:30/km", precomputed at sync time
	Type              string    // Strava activity type: Run, TrailRun, VirtualRun
}
