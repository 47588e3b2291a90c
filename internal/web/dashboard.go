package web

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhishyantkhare/marathon-trainer/internal/apiclient"
	"github.com/abhishyantkhare/marathon-trainer/internal/plandoc"
)

const recentRunsLimit = 5

type dashboardData struct {
	Profile     *apiclient.Profile
	WeeksToRace int
	CurrentWeek *plandoc.Week
	RecentRuns  []apiclient.Run
	Error       string
}

// handleDashboard aggregates the dashboard's three resources. The profile is
// required; the plan and recent runs are optional and degrade to their empty
// states when missing or failing.
func (s *Server) handleDashboard(c *gin.Context) {
	sess := currentSession(c)
	client := sess.Client()
	ctx := c.Request.Context()

	profile, err := client.GetProfile(ctx)
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			return
		}
		s.renderPage(c, "dashboard.html", PageData{
			Title: "Dashboard",
			Data:  dashboardData{Error: errorMessage(err)},
		})
		return
	}

	data := dashboardData{
		Profile:     profile,
		WeeksToRace: weeksUntil(profile.RaceDate, s.now()),
	}

	plan, err := client.GetPlan(ctx)
	switch {
	case err == nil:
		if week := currentPlanWeek(plan.PlanJSON, s.now()); week != nil {
			data.CurrentWeek = week
		} else {
			s.logger.Warn("stored plan does not decode", "plan_id", plan.ID)
		}
	case apiclient.IsUnauthorized(err):
		return
	case apiclient.IsNotFound(err):
		// No plan yet; the dashboard shows the generate call to action.
	default:
		s.logger.Warn("training plan unavailable", "error", err)
	}

	runs, err := client.ListRuns(ctx, recentRunsLimit, 0)
	switch {
	case err == nil:
		data.RecentRuns = runs.Runs
	case apiclient.IsUnauthorized(err):
		return
	default:
		s.logger.Warn("recent runs unavailable", "error", err)
	}

	s.renderPage(c, "dashboard.html", PageData{Title: "Dashboard", Data: data})
}

// currentPlanWeek decodes the stored plan and picks the week containing
// today. Returns nil when the document does not decode or has no weeks.
func currentPlanWeek(raw json.RawMessage, now time.Time) *plandoc.Week {
	var doc plandoc.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil
	}
	week, ok := doc.CurrentWeek(now)
	if !ok {
		return nil
	}
	return &week
}

// weeksUntil counts whole weeks from now to the race, rounding up and never
// going negative.
func weeksUntil(raceDate, now time.Time) int {
	days := int(raceDate.Sub(now).Hours() / 24)
	if days <= 0 {
		return 0
	}
	return (days + 6) / 7
}
