package planner

import (
	"math"
	"time"

	"github.com/abhishyantkhare/marathon-trainer/internal/format"
	"github.com/abhishyantkhare/marathon-trainer/internal/plandoc"
)

// fallbackPlan builds a deterministic template plan. It is used when the
// model output cannot be parsed or validated, and in stub mode.
func fallbackPlan(today, raceDate time.Time, goalTimeMinutes, weeks int, paces Paces) *plandoc.Document {
	planWeeks := make([]plandoc.Week, 0, weeks)

	for weekNum := 1; weekNum <= weeks; weekNum++ {
		weekStart := today.AddDate(0, 0, (weekNum-1)*7)

		var theme string
		switch {
		case weekNum <= weeks/3:
			theme = "Base Building"
		case weekNum <= weeks-3:
			theme = "Build Phase"
		case weekNum == weeks:
			theme = "Race Week"
		default:
			theme = "Taper"
		}

		// Mileage ramps 5% per week through the build, then cuts for the taper.
		multiplier := 0.6
		if weekNum <= weeks-3 {
			multiplier = math.Min(1.0+float64(weekNum-1)*0.05, 1.5)
		}

		quality := plandoc.Workout{
			Day:         "Wednesday",
			WorkoutType: plandoc.WorkoutIntervals,
			Description: "Quality workout",
			DistanceKM:  roundKM(10 * multiplier),
			Pace:        paces.Intervals,
			Notes:       "Key workout of the week",
		}
		if weekNum%2 == 0 {
			quality.WorkoutType = plandoc.WorkoutTempo
			quality.Pace = paces.Tempo
		}

		workouts := []plandoc.Workout{
			{Day: "Monday", WorkoutType: plandoc.WorkoutRest, Description: "Rest day", Notes: "Recovery"},
			{Day: "Tuesday", WorkoutType: plandoc.WorkoutEasyRun, Description: "Easy run", DistanceKM: roundKM(8 * multiplier), Pace: paces.Easy},
			quality,
			{Day: "Thursday", WorkoutType: plandoc.WorkoutEasyRun, Description: "Recovery run", DistanceKM: roundKM(6 * multiplier), Pace: paces.Easy},
			{Day: "Friday", WorkoutType: plandoc.WorkoutRest, Description: "Rest day"},
			{Day: "Saturday", WorkoutType: plandoc.WorkoutEasyRun, Description: "Easy run", DistanceKM: roundKM(8 * multiplier), Pace: paces.Easy},
			{Day: "Sunday", WorkoutType: plandoc.WorkoutLongRun, Description: "Long run", DistanceKM: roundKM(18 * multiplier), Pace: paces.LongRun, Notes: "Build endurance"},
		}

		var totalKM float64
		for _, w := range workouts {
			totalKM += w.DistanceKM
		}

		planWeeks = append(planWeeks, plandoc.Week{
			WeekNumber:      weekNum,
			StartDate:       weekStart.Format(plandoc.DateLayout),
			Theme:           theme,
			TotalDistanceKM: roundKM(totalKM),
			Workouts:        workouts,
		})
	}

	return &plandoc.Document{
		RaceName:   "Marathon",
		RaceDate:   raceDate.Format(plandoc.DateLayout),
		GoalTime:   format.GoalTime(goalTimeMinutes),
		TotalWeeks: weeks,
		Weeks:      planWeeks,
		Notes:      "This is a fallback training plan. Consider regenerating with AI for a more personalized plan.",
	}
}

func roundKM(km float64) float64 {
	return math.Round(km*10) / 10
}
