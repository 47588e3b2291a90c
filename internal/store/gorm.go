package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhishyantkhare/marathon-trainer/internal/models"
	"gorm.io/gorm"
)

// NewGorm builds a Store backed by the given database connection.
func NewGorm(db *gorm.DB) *Store {
	return &Store{
		Users:    &gormUsers{db: db},
		Profiles: &gormProfiles{db: db},
		Runs:     &gormRuns{db: db},
		Plans:    &gormPlans{db: db},
	}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

type gormUsers struct {
	db *gorm.DB
}

func (s *gormUsers) Create(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *gormUsers) Save(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (s *gormUsers) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Profile").First(&user, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *gormUsers) GetByStravaID(ctx context.Context, stravaID int64) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("strava_id = ?", stravaID).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *gormUsers) ListStravaConnected(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("strava_access_token <> '' AND strava_refresh_token <> ''").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list connected users: %w", err)
	}
	return users, nil
}

type gormProfiles struct {
	db *gorm.DB
}

func (s *gormProfiles) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (s *gormProfiles) Save(ctx context.Context, profile *models.Profile) error {
	if err := s.db.WithContext(ctx).Save(profile).Error; err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

type gormRuns struct {
	db *gorm.DB
}

func (s *gormRuns) List(ctx context.Context, userID uint, limit, offset int) ([]models.Run, error) {
	var runs []models.Run
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_date DESC").
		Limit(limit).
		Offset(offset).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

func (s *gormRuns) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).
		Model(&models.Run{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return total, nil
}

func (s *gormRuns) LatestByUser(ctx context.Context, userID uint) (*models.Run, error) {
	var run models.Run
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_date DESC").
		First(&run).Error
	if err != nil {
		return nil, translate(err)
	}
	return &run, nil
}

func (s *gormRuns) ExistsByActivityID(ctx context.Context, activityID int64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Run{}).
		Where("strava_activity_id = ?", activityID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check activity: %w", err)
	}
	return count > 0, nil
}

func (s *gormRuns) Create(ctx context.Context, run *models.Run) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

type gormPlans struct {
	db *gorm.DB
}

func (s *gormPlans) LatestByUser(ctx context.Context, userID uint) (*models.TrainingPlan, error) {
	var plan models.TrainingPlan
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&plan).Error
	if err != nil {
		return nil, translate(err)
	}
	return &plan, nil
}

func (s *gormPlans) ExistsByUser(ctx context.Context, userID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.TrainingPlan{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check plans: %w", err)
	}
	return count > 0, nil
}

func (s *gormPlans) Create(ctx context.Context, plan *models.TrainingPlan) error {
	if err := s.db.WithContext(ctx).Create(plan).Error; err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}
	return nil
}
