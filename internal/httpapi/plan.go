package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/abhishyantkhare/marathon-trainer/internal/auth"
	"github.com/abhishyantkhare/marathon-trainer/internal/models"
	"github.com/abhishyantkhare/marathon-trainer/internal/store"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

// PlanResponse returns a stored training plan with its document inlined.
type PlanResponse struct {
	ID        uint            `json:"id"`
	PlanJSON  json.RawMessage `json:"plan_json"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// GeneratePlanRequest toggles regeneration over an existing plan.
type GeneratePlanRequest struct {
	Regenerate bool `json:"regenerate"`
}

func (s *Server) handleGetPlan(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}

	plan, err := s.store.Plans.LatestByUser(c.Request.Context(), user.ID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "No training plan found. Generate one first."})
		return
	}
	if err != nil {
		s.logger.Error("failed to load training plan", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to load training plan"})
		return
	}

	c.JSON(http.StatusOK, toPlanResponse(plan))
}

func (s *Server) handleGeneratePlan(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}

	// An empty body means a plain generate.
	var req GeneratePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	profile, err := s.store.Profiles.GetByUserID(ctx, user.ID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Please complete your profile first"})
		return
	}
	if err != nil {
		s.logger.Error("failed to load profile", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to load profile"})
		return
	}

	if !req.Regenerate {
		exists, err := s.store.Plans.ExistsByUser(ctx, user.ID)
		if err != nil {
			s.logger.Error("failed to check for existing plan", "user_id", user.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to load training plan"})
			return
		}
		if exists {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Training plan already exists. Set regenerate=true to create a new one."})
			return
		}
	}

	data, err := s.generator.Generate(ctx, profile)
	if err != nil {
		s.logger.Error("plan generation failed", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("Failed to generate training plan: %v", err)})
		return
	}

	plan := &models.TrainingPlan{UserID: user.ID, PlanData: datatypes.JSON(data)}
	if err := s.store.Plans.Create(ctx, plan); err != nil {
		s.logger.Error("failed to store training plan", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprintf("Failed to generate training plan: %v", err)})
		return
	}

	s.logger.Info("training plan generated", "user_id", user.ID, "plan_id", plan.ID)
	c.JSON(http.StatusOK, toPlanResponse(plan))
}

func toPlanResponse(plan *models.TrainingPlan) PlanResponse {
	return PlanResponse{
		ID:        plan.ID,
		PlanJSON:  json.RawMessage(plan.PlanData),
		CreatedAt: plan.CreatedAt,
		UpdatedAt: plan.UpdatedAt,
	}
}
