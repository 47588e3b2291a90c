package planner

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/abhishyantkhare/marathon-trainer/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var presetsYAML []byte

// MileageGuide is the weekly km progression for one fitness level.
type MileageGuide struct {
	StartKM float64 `yaml:"start_km"`
	PeakKM  float64 `yaml:"peak_km"`
	TaperKM float64 `yaml:"taper_km"`
}

// Presets holds the embedded mileage manifest.
type Presets struct {
	Levels map[string]MileageGuide `yaml:"levels"`
}

// loadPresets parses the embedded manifest with strict validation.
// Unknown YAML fields are rejected (via KnownFields) to catch typos.
func loadPresets() (*Presets, error) {
	var presets Presets
	decoder := yaml.NewDecoder(bytes.NewReader(presetsYAML))
	decoder.KnownFields(true)

	if err := decoder.Decode(&presets); err != nil {
		return nil, fmt.Errorf("failed to parse mileage presets: %w", err)
	}

	for _, level := range []string{models.FitnessBeginner, models.FitnessIntermediate, models.FitnessAdvanced} {
		if _, ok := presets.Levels[level]; !ok {
			return nil, fmt.Errorf("mileage presets missing level: %s", level)
		}
	}

	return &presets, nil
}

// Guide returns the mileage guide for a fitness level.
func (p *Presets) Guide(fitnessLevel string) (MileageGuide, error) {
	guide, ok := p.Levels[fitnessLevel]
	if !ok {
		return MileageGuide{}, fmt.Errorf("unknown fitness level: %s", fitnessLevel)
	}
	return guide, nil
}
