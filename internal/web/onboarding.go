package web

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhishyantkhare/marathon-trainer/internal/apiclient"
	"github.com/abhishyantkhare/marathon-trainer/internal/models"
)

// Goal bounds mirror the API's: anything outside is rejected here, before a
// network call is made.
const (
	minGoalMinutes = 120
	maxGoalMinutes = 420
)

var fitnessLevels = []string{
	models.FitnessBeginner,
	models.FitnessIntermediate,
	models.FitnessAdvanced,
}

type onboardingForm struct {
	RaceDate     string
	GoalTime     string
	FitnessLevel string
}

type onboardingData struct {
	Form   onboardingForm
	Levels []string
	Error  string
}

// handleOnboardingPage shows the race goal form. Athletes who already
// finished onboarding land on the dashboard instead.
func (s *Server) handleOnboardingPage(c *gin.Context) {
	if user := currentUser(c); user != nil && user.HasProfile {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	s.renderPage(c, "onboarding.html", PageData{
		Title: "Set your race goal",
		Data:  onboardingData{Levels: fitnessLevels},
	})
}

// handleOnboardingSubmit validates the race goal, creates the profile, kicks
// off the first plan generation, and refreshes the session so has_profile is
// current before the dashboard renders. Plan generation is best effort here:
// if it fails, the plan page offers manual generation.
func (s *Server) handleOnboardingSubmit(c *gin.Context) {
	form := onboardingForm{
		RaceDate:     strings.TrimSpace(c.PostForm("race_date")),
		GoalTime:     strings.TrimSpace(c.PostForm("goal_time_minutes")),
		FitnessLevel: c.PostForm("fitness_level"),
	}

	input, problem := parseOnboardingForm(form, s.now())
	if problem != "" {
		s.renderOnboarding(c, form, problem)
		return
	}

	sess := currentSession(c)
	client := sess.Client()
	ctx := c.Request.Context()

	if _, err := client.CreateProfile(ctx, input); err != nil {
		if apiclient.IsUnauthorized(err) {
			return
		}
		s.renderOnboarding(c, form, errorMessage(err))
		return
	}

	if _, err := client.GeneratePlan(ctx, false); err != nil && !apiclient.IsUnauthorized(err) {
		s.logger.Warn("initial plan generation failed", "error", err)
	}

	sess.Refresh(ctx)
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

func (s *Server) renderOnboarding(c *gin.Context, form onboardingForm, problem string) {
	s.renderPage(c, "onboarding.html", PageData{
		Title: "Set your race goal",
		Data:  onboardingData{Form: form, Levels: fitnessLevels, Error: problem},
	})
}

// parseOnboardingForm checks the form the same way the API will, so obvious
// mistakes never leave the page. The race date must be strictly after today
// at date granularity.
func parseOnboardingForm(form onboardingForm, now time.Time) (apiclient.ProfileInput, string) {
	var input apiclient.ProfileInput

	raceDate, err := time.Parse("2006-01-02", form.RaceDate)
	if err != nil {
		return input, "Enter your race date."
	}
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if !raceDate.After(today) {
		return input, "Race date must be in the future."
	}

	goal, err := strconv.Atoi(form.GoalTime)
	if err != nil {
		return input, "Enter your goal time in minutes."
	}
	if goal < minGoalMinutes || goal > maxGoalMinutes {
		return input, "Goal time must be between 120 and 420 minutes."
	}

	if !models.ValidFitnessLevel(form.FitnessLevel) {
		return input, "Choose a fitness level."
	}

	input = apiclient.ProfileInput{
		RaceDate:        raceDate,
		GoalTimeMinutes: goal,
		FitnessLevel:    form.FitnessLevel,
	}
	return input, ""
}
