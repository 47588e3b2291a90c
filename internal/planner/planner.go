// Package planner generates marathon training plans from a race goal, using
// Claude when configured and a deterministic fallback template otherwise.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abhishyantkhare/marathon-trainer/internal/models"
	"github.com/abhishyantkhare/marathon-trainer/internal/plandoc"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const maxTokens = 8000

// Generator produces training plan documents.
type Generator struct {
	client  anthropic.Client
	model   string
	stub    bool
	presets *Presets
	logger  *slog.Logger
	now     func() time.Time
}

// NewGenerator creates a Generator. With stub enabled no API calls are made
// and every generation returns the deterministic template plan.
func NewGenerator(apiKey, model string, stub bool, logger *slog.Logger) (*Generator, error) {
	presets, err := loadPresets()
	if err != nil {
		return nil, err
	}

	g := &Generator{
		model:   model,
		stub:    stub,
		presets: presets,
		logger:  logger,
		now:     time.Now,
	}
	if !stub {
		g.client = anthropic.NewClient(option.WithAPIKey(apiKey))
	}
	return g, nil
}

// Generate builds a plan for the profile and returns it as canonical JSON,
// already validated against the plan schema.
func (g *Generator) Generate(ctx context.Context, profile *models.Profile) ([]byte, error) {
	today := g.now().UTC()
	weeks := weeksUntilRace(today, profile.RaceDate)
	paces := TargetPaces(profile.GoalTimeMinutes)

	mileage, err := g.presets.Guide(profile.FitnessLevel)
	if err != nil {
		return nil, err
	}

	if g.stub {
		g.logger.Info("planner stub mode, using template plan", "weeks", weeks)
		return marshalDocument(fallbackPlan(today, profile.RaceDate, profile.GoalTimeMinutes, weeks, paces))
	}

	prompt := buildPrompt(profile, today, weeks, paces, mileage)

	message, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate training plan: %w", err)
	}

	var content strings.Builder
	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			content.WriteString(text.Text)
		}
	}

	cleaned := stripMarkdownFences(content.String())
	doc, err := plandoc.Parse([]byte(cleaned))
	if err != nil {
		// Model returned something unusable. Fall back to the template
		// rather than failing the request.
		g.logger.Warn("model plan failed validation, using template plan", "error", err)
		doc = fallbackPlan(today, profile.RaceDate, profile.GoalTimeMinutes, weeks, paces)
	}

	return marshalDocument(doc)
}

// stripMarkdownFences removes a surrounding ``` block if the model wrapped
// its JSON despite instructions.
func stripMarkdownFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	lines := strings.Split(content, "\n")
	if len(lines) < 3 {
		return content
	}
	return strings.Join(lines[1:len(lines)-1], "\n")
}

func weeksUntilRace(today, raceDate time.Time) int {
	days := int(raceDate.Sub(today).Hours() / 24)
	weeks := days / 7
	if weeks < 1 {
		weeks = 1
	}
	return weeks
}

func marshalDocument(doc *plandoc.Document) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode plan: %w", err)
	}
	return data, nil
}
