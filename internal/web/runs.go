package web

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhishyantkhare/marathon-trainer/internal/apiclient"
	"github.com/abhishyantkhare/marathon-trainer/internal/format"
)

const runsPageLimit = 100

// RunStats are the aggregates shown above the run list. With no runs every
// field is zero; that renders as "0.0 km", not as an error.
type RunStats struct {
	Count        int
	TotalMeters  float64
	TotalSeconds int
	WeekMeters   float64
}

// runStats reduces a page of runs into totals. "This week" begins at the
// most recent Monday boundary.
func runStats(runs []apiclient.Run, now time.Time) RunStats {
	stats := RunStats{Count: len(runs)}
	weekStart := format.WeekStart(now)
	for _, run := range runs {
		stats.TotalMeters += run.DistanceMeters
		stats.TotalSeconds += run.MovingTimeSeconds
		if !run.StartDate.Before(weekStart) {
			stats.WeekMeters += run.DistanceMeters
		}
	}
	return stats
}

type runsData struct {
	Runs   []apiclient.Run
	Total  int64
	Stats  RunStats
	Notice string
	Error  string
}

func (s *Server) handleRuns(c *gin.Context) {
	var notice string
	if n, err := strconv.Atoi(c.Query("synced")); err == nil && n >= 0 {
		notice = fmt.Sprintf("Synced %d new runs from Strava", n)
	}
	s.renderRuns(c, notice, "")
}

// handleSyncRuns triggers a Strava sync. Success redirects back to the list
// so a reload cannot re-trigger the sync; failure renders the list with the
// sync error inline.
func (s *Server) handleSyncRuns(c *gin.Context) {
	sess := currentSession(c)
	result, err := sess.Client().SyncRuns(c.Request.Context())
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			return
		}
		s.renderRuns(c, "", errorMessage(err))
		return
	}
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/runs?synced=%d", result.SyncedCount))
}

func (s *Server) renderRuns(c *gin.Context, notice, syncError string) {
	sess := currentSession(c)
	list, err := sess.Client().ListRuns(c.Request.Context(), runsPageLimit, 0)
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			return
		}
		s.renderPage(c, "runs.html", PageData{
			Title: "Runs",
			Data:  runsData{Error: errorMessage(err)},
		})
		return
	}

	s.renderPage(c, "runs.html", PageData{
		Title: "Runs",
		Data: runsData{
			Runs:   list.Runs,
			Total:  list.Total,
			Stats:  runStats(list.Runs, s.now()),
			Notice: notice,
			Error:  syncError,
		},
	})
}
