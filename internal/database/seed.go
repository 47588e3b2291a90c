package database

import (
	"encoding/json"
	"log"
	"time"

	"github.com/abhishyantkhare/marathon-trainer/internal/format"
	"github.com/abhishyantkhare/marathon-trainer/internal/models"
	"github.com/abhishyantkhare/marathon-trainer/internal/plandoc"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SeedDevData populates the database with development test data.
// Idempotent: skips if data already exists.
func SeedDevData(db *gorm.DB) error {
	// Check if seed data already exists
	var existingUser models.User
	result := db.Where("strava_id = ?", int64(10000001)).First(&existingUser)
	if result.Error == nil {
		log.Println("Seed data already exists, skipping")
		return nil
	}

	now := time.Now().UTC()

	// Create test athlete
	user := models.User{
		StravaID:             10000001,
		Email:                "dev@marathontrainer.local",
		Name:                 "Dev Runner",
		ProfilePicture:       "https://example.com/avatar.png",
		StravaAccessToken:    "dev-access-token-placeholder",
		StravaRefreshToken:   "dev-refresh-token-placeholder",
		StravaTokenExpiresAt: now.Add(6 * time.Hour).Unix(),
	}
	if err := db.Create(&user).Error; err != nil {
		return err
	}

	// Race goal: sub-4 marathon sixteen weeks out
	profile := models.Profile{
		UserID:          user.ID,
		RaceDate:        now.AddDate(0, 0, 16*7),
		GoalTimeMinutes: 240,
		FitnessLevel:    models.FitnessIntermediate,
	}
	if err := db.Create(&profile).Error; err != nil {
		return err
	}

	// Recent run history
	runs := []models.Run{
		{
			UserID:            user.ID,
			StravaActivityID:  90000001,
			Name:              "Morning Easy Run",
			DistanceMeters:    8200,
			MovingTimeSeconds: 2870,
			StartDate:         now.AddDate(0, 0, -1),
			AveragePace:       format.Pace(8200, 2870),
			Type:              "Run",
		},
		{
			UserID:            user.ID,
			StravaActivityID:  90000002,
			Name:              "Sunday Long Run",
			DistanceMeters:    18300,
			MovingTimeSeconds: 6990,
			StartDate:         now.AddDate(0, 0, -3),
			AveragePace:       format.Pace(18300, 6990),
			Type:              "Run",
		},
		{
			UserID:            user.ID,
			StravaActivityID:  90000003,
			Name:              "Trail Tempo",
			DistanceMeters:    10050,
			MovingTimeSeconds: 3150,
			StartDate:         now.AddDate(0, 0, -6),
			AveragePace:       format.Pace(10050, 3150),
			Type:              "TrailRun",
		},
	}
	for i := range runs {
		if err := db.Create(&runs[i]).Error; err != nil {
			return err
		}
	}

	// A small plan starting this week so the dashboard has a current week.
	weekOne := format.WeekStart(now)
	doc := plandoc.Document{
		RaceName:   "Marathon",
		RaceDate:   profile.RaceDate.Format(plandoc.DateLayout),
		GoalTime:   format.GoalTime(profile.GoalTimeMinutes),
		TotalWeeks: 2,
		Notes:      "Two sample weeks of base building.",
		Weeks: []plandoc.Week{
			{
				WeekNumber:      1,
				StartDate:       weekOne.Format(plandoc.DateLayout),
				Theme:           "Base Building",
				TotalDistanceKM: 40,
				Workouts: []plandoc.Workout{
					{Day: "Monday", WorkoutType: plandoc.WorkoutEasyRun, DistanceKM: 8, Pace: "6:15/km", Description: "Conversational effort"},
					{Day: "Wednesday", WorkoutType: plandoc.WorkoutTempo, DistanceKM: 10, Pace: "5:30/km", Description: "3x2km at tempo"},
					{Day: "Friday", WorkoutType: plandoc.WorkoutRest, Description: "Rest day"},
					{Day: "Sunday", WorkoutType: plandoc.WorkoutLongRun, DistanceKM: 22, Pace: "5:55/km", Description: "Steady long run"},
				},
			},
			{
				WeekNumber:      2,
				StartDate:       weekOne.AddDate(0, 0, 7).Format(plandoc.DateLayout),
				Theme:           "Base Building",
				TotalDistanceKM: 42,
				Workouts: []plandoc.Workout{
					{Day: "Monday", WorkoutType: plandoc.WorkoutEasyRun, DistanceKM: 8, Pace: "6:15/km"},
					{Day: "Thursday", WorkoutType: plandoc.WorkoutIntervals, DistanceKM: 10, Pace: "4:40/km", Description: "6x800m"},
					{Day: "Sunday", WorkoutType: plandoc.WorkoutLongRun, DistanceKM: 24, Pace: "5:55/km"},
				},
			},
		},
	}
	planJSON, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	plan := models.TrainingPlan{
		UserID:   user.ID,
		PlanData: datatypes.JSON(planJSON),
	}
	if err := db.Create(&plan).Error; err != nil {
		return err
	}

	log.Println("Seeded dev data: 1 user, 1 profile, 3 runs, 1 training plan")
	return nil
}
