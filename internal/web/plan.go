package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhishyantkhare/marathon-trainer/internal/apiclient"
	"github.com/abhishyantkhare/marathon-trainer/internal/plandoc"
)

type planData struct {
	Plan              *plandoc.Document
	HasPlan           bool
	CurrentWeekNumber int
	UpdatedAt         time.Time
	Error             string
}

// handlePlan renders the full training plan. A 404 from the API is the empty
// state with the generate call to action; any other failure is a page error
// with a retry link.
func (s *Server) handlePlan(c *gin.Context) {
	sess := currentSession(c)
	plan, err := sess.Client().GetPlan(c.Request.Context())
	switch {
	case apiclient.IsNotFound(err):
		s.renderPage(c, "plan.html", PageData{Title: "Training Plan", Data: planData{}})
		return
	case apiclient.IsUnauthorized(err):
		return
	case err != nil:
		s.renderPage(c, "plan.html", PageData{
			Title: "Training Plan",
			Data:  planData{Error: errorMessage(err)},
		})
		return
	}

	var doc plandoc.Document
	if err := json.Unmarshal(plan.PlanJSON, &doc); err != nil {
		s.logger.Error("stored plan does not decode", "plan_id", plan.ID, "error", err)
		s.renderPage(c, "plan.html", PageData{
			Title: "Training Plan",
			Data:  planData{Error: "The stored plan could not be displayed. Try regenerating it."},
		})
		return
	}

	data := planData{Plan: &doc, HasPlan: true, UpdatedAt: plan.UpdatedAt}
	if week, ok := doc.CurrentWeek(s.now()); ok {
		data.CurrentWeekNumber = week.WeekNumber
	}
	s.renderPage(c, "plan.html", PageData{Title: "Training Plan", Data: data})
}

// handleGeneratePlan triggers generation and lands back on the plan page.
// The regenerate flag distinguishes a first plan from an explicit redo.
func (s *Server) handleGeneratePlan(c *gin.Context) {
	sess := currentSession(c)
	regenerate := c.PostForm("regenerate") == "true"

	if _, err := sess.Client().GeneratePlan(c.Request.Context(), regenerate); err != nil {
		if apiclient.IsUnauthorized(err) {
			return
		}
		s.renderPage(c, "plan.html", PageData{
			Title: "Training Plan",
			Data:  planData{Error: errorMessage(err)},
		})
		return
	}

	c.Redirect(http.StatusSeeOther, "/plan")
}
