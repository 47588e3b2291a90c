// Package plandoc defines the training plan document exchanged between the
// planner, the API and the web tier. The document is server-authoritative:
// clients render it and request regeneration, they never edit fields.
package plandoc

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kaptinlin/jsonschema"
)

// DateLayout is the wire format for plan dates.
const DateLayout = "2006-01-02"

// Workout type constants
const (
	WorkoutEasyRun       = "easy_run"
	WorkoutLongRun       = "long_run"
	WorkoutTempo         = "tempo"
	WorkoutIntervals     = "intervals"
	WorkoutRest          = "rest"
	WorkoutCrossTraining = "cross_training"
)

//go:embed plan.schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	planSchema *jsonschema.Schema
	schemaErr  error
)

// Document is a complete marathon training plan.
type Document struct {
	RaceName   string `json:"race_name,omitempty"`
	RaceDate   string `json:"race_date,omitempty"` // YYYY-MM-DD
	GoalTime   string `json:"goal_time,omitempty"` // e.g. "4:00:00"
	TotalWeeks int    `json:"total_weeks"`
	Weeks      []Week `json:"weeks"`
	Notes      string `json:"notes,omitempty"`
}

// Week is one 7-day training block starting on StartDate.
type Week struct {
	WeekNumber      int       `json:"week_number"`
	StartDate       string    `json:"start_date"` // YYYY-MM-DD
	Theme           string    `json:"theme,omitempty"`
	TotalDistanceKM float64   `json:"total_distance_km,omitempty"`
	Workouts        []Workout `json:"workouts"`
}

// Workout is a single day's assignment within a week. Rest days carry no
// distance or pace.
type Workout struct {
	Day         string  `json:"day"`
	WorkoutType string  `json:"workout_type"`
	Description string  `json:"description,omitempty"`
	DistanceKM  float64 `json:"distance_km,omitempty"`
	Pace        string  `json:"pace,omitempty"`
	Notes       string  `json:"notes,omitempty"`
}

// StartTime parses the week's start date.
func (w Week) StartTime() (time.Time, error) {
	return time.Parse(DateLayout, w.StartDate)
}

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		planSchema, schemaErr = compiler.Compile(schemaJSON)
	})
	if schemaErr != nil {
		return nil, fmt.Errorf("failed to compile plan schema: %w", schemaErr)
	}
	return planSchema, nil
}

// Validate checks raw JSON against the plan schema.
func Validate(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("plan is not a JSON object: %w", err)
	}

	result := schema.Validate(doc)
	if !result.IsValid() {
		var errorMessages []string
		for field, evalErr := range result.Errors {
			errorMessages = append(errorMessages, fmt.Sprintf("%s: %s", field, evalErr.Error()))
		}
		return fmt.Errorf("plan validation failed: %s", strings.Join(errorMessages, "; "))
	}

	return nil
}

// Parse validates raw JSON and decodes it into a Document.
func Parse(data []byte) (*Document, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode plan: %w", err)
	}
	return &doc, nil
}

// CurrentWeek selects the week whose [start, start+7d) window contains today.
// A date equal to a week's start belongs to that week; a date equal to
// start+7d belongs to the following week. When no window matches, the first
// week is returned. The second return is false only when the plan has no
// weeks at all.
func (d *Document) CurrentWeek(today time.Time) (Week, bool) {
	if len(d.Weeks) == 0 {
		return Week{}, false
	}

	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	for _, w := range d.Weeks {
		start, err := w.StartTime()
		if err != nil {
			continue
		}
		end := start.AddDate(0, 0, 7)
		if !day.Before(start) && day.Before(end) {
			return w, true
		}
	}

	return d.Weeks[0], true
}
