package models

import (
	"time"

	"gorm.io/gorm"
)

// Fitness level constants
const (
	FitnessBeginner     = "beginner"
	FitnessIntermediate = "intermediate"
	FitnessAdvanced     = "advanced"
)

// ValidFitnessLevel reports whether level is one of the accepted values.
func ValidFitnessLevel(level string) bool {
	switch level {
	case FitnessBeginner, FitnessIntermediate, FitnessAdvanced:
		return true
	}
	return false
}

// Profile holds an athlete's race goal. One per user.
type Profile struct {
	gorm.Model
	UserID          uint      `gorm:"not null;uniqueIndex:idx_user_profiles_user_not_deleted,where:deleted_at IS NULL"`
	RaceDate        time.Time `gorm:"not null"`
	GoalTimeMinutes int       `gorm:"not null"` // total minutes for the marathon
	FitnessLevel    string    `gorm:"not null"` // enum: beginner, intermediate, advanced
}

// TableName keeps the historical table name.
func (Profile) TableName() string {
	return "user_profiles"
}
