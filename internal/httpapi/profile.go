package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/abhishyantkhare/marathon-trainer/internal/auth"
	"github.com/abhishyantkhare/marathon-trainer/internal/models"
	"github.com/abhishyantkhare/marathon-trainer/internal/store"
	"github.com/gin-gonic/gin"
)

// Goal times outside this window are either typos or not marathon training.
const (
	minGoalTimeMinutes = 120
	maxGoalTimeMinutes = 420
)

// ProfileRequest is the create-or-update payload for POST /api/profile.
type ProfileRequest struct {
	RaceDate        time.Time `json:"race_date"`
	GoalTimeMinutes int       `json:"goal_time_minutes"`
	FitnessLevel    string    `json:"fitness_level"`
}

// ProfileResponse mirrors the stored profile.
type ProfileResponse struct {
	ID              uint      `json:"id"`
	RaceDate        time.Time `json:"race_date"`
	GoalTimeMinutes int       `json:"goal_time_minutes"`
	FitnessLevel    string    `json:"fitness_level"`
}

func (s *Server) handleGetProfile(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}

	profile, err := s.store.Profiles.GetByUserID(c.Request.Context(), user.ID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Profile not found. Please complete onboarding."})
		return
	}
	if err != nil {
		s.logger.Error("failed to load profile", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, toProfileResponse(profile))
}

func (s *Server) handleCreateProfile(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}

	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body"})
		return
	}
	if detail, ok := validateProfileRequest(req); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"detail": detail})
		return
	}

	ctx := c.Request.Context()
	profile, err := s.store.Profiles.GetByUserID(ctx, user.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		profile = &models.Profile{UserID: user.ID}
	case err != nil:
		s.logger.Error("failed to load profile", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to load profile"})
		return
	}

	profile.RaceDate = req.RaceDate
	profile.GoalTimeMinutes = req.GoalTimeMinutes
	profile.FitnessLevel = req.FitnessLevel

	if err := s.store.Profiles.Save(ctx, profile); err != nil {
		s.logger.Error("failed to save profile", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to save profile"})
		return
	}

	c.JSON(http.StatusOK, toProfileResponse(profile))
}

func validateProfileRequest(req ProfileRequest) (string, bool) {
	if !models.ValidFitnessLevel(req.FitnessLevel) {
		return "Invalid fitness level", false
	}
	if req.GoalTimeMinutes < minGoalTimeMinutes || req.GoalTimeMinutes > maxGoalTimeMinutes {
		return "Goal time must be between 120 and 420 minutes", false
	}
	if !req.RaceDate.After(time.Now()) {
		return "Race date must be in the future", false
	}
	return "", true
}

func toProfileResponse(profile *models.Profile) ProfileResponse {
	return ProfileResponse{
		ID:              profile.ID,
		RaceDate:        profile.RaceDate,
		GoalTimeMinutes: profile.GoalTimeMinutes,
		FitnessLevel:    profile.FitnessLevel,
	}
}
