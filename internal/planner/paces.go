package planner

import "fmt"

// marathonKM is the marathon distance in kilometers.
const marathonKM = 42.195

// Paces are the per-km training paces derived from the goal time.
type Paces struct {
	Easy      string
	LongRun   string
	Tempo     string
	Intervals string
	Race      string
}

// TargetPaces derives training paces from the goal marathon time. Easy and
// long runs sit above race pace, intervals below it.
func TargetPaces(goalTimeMinutes int) Paces {
	goalPaceSeconds := float64(goalTimeMinutes*60) / marathonKM

	return Paces{
		Easy:      formatPace(goalPaceSeconds * 1.25),
		LongRun:   formatPace(goalPaceSeconds * 1.15),
		Tempo:     formatPace(goalPaceSeconds * 1.05),
		Intervals: formatPace(goalPaceSeconds * 0.90),
		Race:      formatPace(goalPaceSeconds),
	}
}

func formatPace(secondsPerKM float64) string {
	seconds := int(secondsPerKM)
	return fmt.Sprintf("%d:%02d/km", seconds/60, seconds%60)
}
