package planner

import (
	"fmt"
	"time"

	"github.com/abhishyantkhare/marathon-trainer/internal/format"
	"github.com/abhishyantkhare/marathon-trainer/internal/models"
	"github.com/abhishyantkhare/marathon-trainer/internal/plandoc"
)

const systemPrompt = "You are an expert marathon running coach. Generate detailed, scientifically-backed training plans in JSON format. Always return valid JSON only."

// buildPrompt renders the user prompt for one plan generation.
func buildPrompt(profile *models.Profile, today time.Time, weeks int, paces Paces, mileage MileageGuide) string {
	raceDate := profile.RaceDate.Format(plandoc.DateLayout)
	goalTime := format.GoalTime(profile.GoalTimeMinutes)
	peakWeek := weeks - 3
	if peakWeek < 1 {
		peakWeek = 1
	}

	return fmt.Sprintf(`Generate a detailed %d-week marathon training plan in JSON format.

Runner Profile:
- Race Date: %s
- Goal Time: %s (%d minutes)
- Fitness Level: %s
- Weeks until race: %d

Target Paces:
- Easy runs: %s
- Long runs: %s
- Tempo runs: %s
- Intervals: %s
- Race pace: %s

Weekly Mileage Guidelines:
- Starting: ~%.0fkm/week
- Peak (around week %d): ~%.0fkm/week
- Taper (final 2-3 weeks): ~%.0fkm/week

Generate a JSON object with this exact structure:
{
  "race_name": "Marathon",
  "race_date": "%s",
  "goal_time": "%s",
  "total_weeks": %d,
  "weeks": [
    {
      "week_number": 1,
      "start_date": "YYYY-MM-DD",
      "theme": "Base Building",
      "total_distance_km": 35.0,
      "workouts": [
        {
          "day": "Monday",
          "workout_type": "rest",
          "description": "Complete rest or light stretching",
          "distance_km": null,
          "pace": null,
          "notes": "Recovery day"
        },
        {
          "day": "Tuesday",
          "workout_type": "easy_run",
          "description": "Easy aerobic run",
          "distance_km": 8.0,
          "pace": "%s",
          "notes": "Keep heart rate in zone 2"
        }
      ]
    }
  ],
  "notes": "General training notes and advice"
}

Workout types: easy_run, tempo, long_run, intervals, rest, cross_training

Important guidelines:
1. Include a long run every weekend (Sunday preferred)
2. Include one quality workout per week (tempo or intervals)
3. Include 1-2 rest days per week
4. Gradually build mileage (max 10%% increase per week)
5. Include a 3-week taper before race day
6. The final week should be very light with the race on the last day
7. Calculate start_date for each week starting from today (%s)

Return ONLY valid JSON, no additional text or markdown.`,
		weeks,
		raceDate,
		goalTime, profile.GoalTimeMinutes,
		profile.FitnessLevel,
		weeks,
		paces.Easy,
		paces.LongRun,
		paces.Tempo,
		paces.Intervals,
		paces.Race,
		mileage.StartKM,
		peakWeek, mileage.PeakKM,
		mileage.TaperKM,
		raceDate,
		goalTime,
		weeks,
		paces.Easy,
		today.Format(plandoc.DateLayout),
	)
}
