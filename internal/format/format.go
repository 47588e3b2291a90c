// Package format holds the display formatting shared by the API tier, the
// web templates and the sync service. Everything renders kilometers; the
// week boundary is the most recent Monday.
package format

import (
	"fmt"
	"time"
)

// Kilometers converts meters to kilometers.
func Kilometers(meters float64) float64 {
	return meters / 1000
}

// Distance renders meters as kilometers with one decimal, e.g. "12.3 km".
func Distance(meters float64) string {
	return fmt.Sprintf("%.1f km", Kilometers(meters))
}

// Pace renders average pace as "M:SS/km". Zero distance has no pace and
// renders as "N/A".
func Pace(distanceMeters float64, movingTimeSeconds int) string {
	if distanceMeters == 0 {
		return "N/A"
	}

	paceSeconds := int(float64(movingTimeSeconds) / distanceMeters * 1000)
	return fmt.Sprintf("%d:%02d/km", paceSeconds/60, paceSeconds%60)
}

// Duration renders a second count as "2h 05m", or "34m 10s" under an hour.
func Duration(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %02dm", hours, minutes)
	}
	return fmt.Sprintf("%dm %02ds", minutes, seconds)
}

// GoalTime renders a marathon goal in minutes as "H:MM:00".
func GoalTime(goalTimeMinutes int) string {
	return fmt.Sprintf("%d:%02d:00", goalTimeMinutes/60, goalTimeMinutes%60)
}

// Date renders a timestamp as "Mar 2, 2026".
func Date(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

// WeekStart returns the most recent Monday boundary (00:00 UTC) at or
// before t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0 ... Sunday = 6
	return day.AddDate(0, 0, -offset)
}

// WeekRange renders a seven-day window starting at start, e.g. "Mar 2 - Mar 8".
func WeekRange(start time.Time) string {
	end := start.AddDate(0, 0, 6)
	return start.Format("Jan 2") + " - " + end.Format("Jan 2")
}

// TimeAgo renders how long ago t was, relative to now.
func TimeAgo(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		m := int(d.Minutes())
		if m == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", m)
	case d < 24*time.Hour:
		h := int(d.Hours())
		if h == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", h)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}
