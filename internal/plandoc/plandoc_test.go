package plandoc

import (
	"encoding/json"
	"testing"
	"time"
)

func twoWeekDoc() *Document {
	return &Document{
		TotalWeeks: 2,
		Weeks: []Week{
			{
				WeekNumber: 1,
				StartDate:  "2026-03-02",
				Theme:      "Base Building",
				Workouts:   []Workout{{Day: "Monday", WorkoutType: WorkoutEasyRun, DistanceKM: 8}},
			},
			{
				WeekNumber: 2,
				StartDate:  "2026-03-09",
				Theme:      "Base Building",
				Workouts:   []Workout{{Day: "Monday", WorkoutType: WorkoutRest}},
			},
		},
	}
}

func TestCurrentWeekBoundaries(t *testing.T) {
	doc := twoWeekDoc()

	tests := []struct {
		name     string
		today    time.Time
		wantWeek int
	}{
		{"start of week one", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), 1},
		{"middle of week one", time.Date(2026, 3, 5, 15, 30, 0, 0, time.UTC), 1},
		{"last day of week one", time.Date(2026, 3, 8, 23, 59, 0, 0, time.UTC), 1},
		{"exactly start plus seven days", time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), 2},
		{"middle of week two", time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			week, ok := doc.CurrentWeek(tt.today)
			if !ok {
				t.Fatal("expected a week, got none")
			}
			if week.WeekNumber != tt.wantWeek {
				t.Fatalf("got week %d, want week %d", week.WeekNumber, tt.wantWeek)
			}
		})
	}
}

func TestCurrentWeekFallsBackToFirstWeek(t *testing.T) {
	doc := twoWeekDoc()

	// Before the plan starts.
	week, ok := doc.CurrentWeek(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	if !ok || week.WeekNumber != 1 {
		t.Fatalf("before plan: got week %d ok=%v, want week 1", week.WeekNumber, ok)
	}

	// After the plan ends.
	week, ok = doc.CurrentWeek(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	if !ok || week.WeekNumber != 1 {
		t.Fatalf("after plan: got week %d ok=%v, want week 1", week.WeekNumber, ok)
	}
}

func TestCurrentWeekEmptyDocument(t *testing.T) {
	doc := &Document{}
	if _, ok := doc.CurrentWeek(time.Now()); ok {
		t.Fatal("expected no week for empty document")
	}
}

func TestValidateAcceptsWellFormedPlan(t *testing.T) {
	data, err := json.Marshal(twoWeekDoc())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := Validate(data); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not an object", `[1, 2, 3]`},
		{"missing weeks", `{"total_weeks": 4}`},
		{"empty weeks", `{"weeks": [], "total_weeks": 0}`},
		{
			"unknown workout type",
			`{"weeks": [{"week_number": 1, "start_date": "2026-03-02", "workouts": [{"day": "Monday", "workout_type": "swim"}]}], "total_weeks": 1}`,
		},
		{
			"malformed start date",
			`{"weeks": [{"week_number": 1, "start_date": "March 2nd", "workouts": [{"day": "Monday", "workout_type": "rest"}]}], "total_weeks": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate([]byte(tt.data)); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestValidateAcceptsNullRestDayFields(t *testing.T) {
	// Rest days commonly arrive with null distance, pace and notes.
	raw := `{
		"race_name": "Marathon",
		"total_weeks": 1,
		"weeks": [
			{
				"week_number": 1,
				"start_date": "2026-03-02",
				"workouts": [
					{"day": "Monday", "workout_type": "rest", "description": "Rest day", "distance_km": null, "pace": null, "notes": null}
				]
			}
		]
	}`
	if err := Validate([]byte(raw)); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	doc, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Weeks[0].Workouts[0].DistanceKM != 0 {
		t.Fatalf("null distance should decode to zero, got %v", doc.Weeks[0].Workouts[0].DistanceKM)
	}
}

func TestParseDecodesDocument(t *testing.T) {
	raw := `{
		"race_name": "Marathon",
		"race_date": "2026-06-21",
		"goal_time": "4:00:00",
		"total_weeks": 1,
		"notes": "Sixteen weeks to race day.",
		"weeks": [
			{
				"week_number": 1,
				"start_date": "2026-03-02",
				"theme": "Base Building",
				"total_distance_km": 40,
				"workouts": [
					{"day": "Monday", "workout_type": "easy_run", "distance_km": 8, "pace": "5:45/km", "description": "Easy shakeout"}
				]
			}
		]
	}`

	doc, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.TotalWeeks != 1 || len(doc.Weeks) != 1 || doc.GoalTime != "4:00:00" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	w := doc.Weeks[0]
	if w.Theme != "Base Building" || w.TotalDistanceKM != 40 {
		t.Fatalf("unexpected week: %+v", w)
	}
	if w.Workouts[0].WorkoutType != WorkoutEasyRun || w.Workouts[0].Pace != "5:45/km" {
		t.Fatalf("unexpected workout: %+v", w.Workouts[0])
	}
}
