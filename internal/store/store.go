// Package store wraps database access behind small per-entity interfaces so
// HTTP handlers and the worker can be tested against fakes.
package store

import (
	"context"
	"errors"

	"github.com/abhishyantkhare/marathon-trainer/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Users persists athlete accounts.
type Users interface {
	Create(ctx context.Context, user *models.User) error
	Save(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByStravaID(ctx context.Context, stravaID int64) (*models.User, error)
	ListStravaConnected(ctx context.Context) ([]models.User, error)
}

// Profiles persists race goals.
type Profiles interface {
	GetByUserID(ctx context.Context, userID uint) (*models.Profile, error)
	Save(ctx context.Context, profile *models.Profile) error
}

// Runs persists synced Strava activities.
type Runs interface {
	List(ctx context.Context, userID uint, limit, offset int) ([]models.Run, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
	LatestByUser(ctx context.Context, userID uint) (*models.Run, error)
	ExistsByActivityID(ctx context.Context, activityID int64) (bool, error)
	Create(ctx context.Context, run *models.Run) error
}

// Plans persists generated training plans. Generation appends; reads return
// the newest plan.
type Plans interface {
	LatestByUser(ctx context.Context, userID uint) (*models.TrainingPlan, error)
	ExistsByUser(ctx context.Context, userID uint) (bool, error)
	Create(ctx context.Context, plan *models.TrainingPlan) error
}

// Store bundles all entity stores.
type Store struct {
	Users    Users
	Profiles Profiles
	Runs     Runs
	Plans    Plans
}
