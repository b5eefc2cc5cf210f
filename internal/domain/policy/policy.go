// Package policy holds the program rules injected into the engine: dates,
// point rates, milestone thresholds and fuzzy-matching tolerances.
package policy

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/arcadepoints/internal/domain/model"
)

// MilestoneTiers is the number of facilitator milestone tiers.
const MilestoneTiers = 4

// Default program values.
var (
	defaultProgramStart = time.Date(2025, time.July, 15, 0, 0, 0, 0, time.UTC)
	defaultWindowStart  = time.Date(2025, time.August, 4, 0, 0, 0, 0, time.UTC)
	defaultWindowEnd    = time.Date(2025, time.October, 6, 23, 59, 59, 999999999, time.UTC)
)

// KeywordRule awards Points to a game badge whose lower-cased name contains
// any of Keywords.
type KeywordRule struct {
	Points   float64  `json:"points"`
	Keywords []string `json:"keywords"`
}

// Points holds the base rates of the scoring categories and the ordered
// game overrides. Lab-free and completion badges never score.
type Points struct {
	Game   float64 `json:"game"`
	Trivia float64 `json:"trivia"`
	Skill  float64 `json:"skill"`
	// GameOverrides are evaluated top-down; the first matching rule wins.
	GameOverrides []KeywordRule `json:"game_overrides"`
}

// Fuzzy holds the skill-badge matching tolerances.
type Fuzzy struct {
	// LengthRatio gates substring containment on minLen/maxLen.
	LengthRatio float64 `json:"length_ratio"`
	// WordOverlapRatio is the minimum shared-word ratio.
	WordOverlapRatio float64 `json:"word_overlap_ratio"`
	// MinOverlapLength: both names must be longer than this for word overlap.
	MinOverlapLength int `json:"min_overlap_length"`
	// MinWordLength: only words longer than this are compared.
	MinWordLength int `json:"min_word_length"`
}

// Policy is the complete rule set for one program season.
type Policy struct {
	ProgramStart      time.Time         `json:"program_start"`
	FacilitatorWindow model.Window      `json:"facilitator_window"`
	Milestones        []model.Threshold `json:"milestones"` // tier 1 first
	Bonuses           []float64         `json:"bonuses"`    // bonus for tier i+1
	Points            Points            `json:"points"`
	Fuzzy             Fuzzy             `json:"fuzzy"`
}

// Default returns the reference program policy.
func Default() Policy {
	return Policy{
		ProgramStart:      defaultProgramStart,
		FacilitatorWindow: model.Window{Start: defaultWindowStart, End: defaultWindowEnd},
		Milestones: []model.Threshold{
			{Game: 6, Trivia: 5, Skill: 14, LabFree: 6},
			{Game: 8, Trivia: 6, Skill: 28, LabFree: 12},
			{Game: 10, Trivia: 7, Skill: 38, LabFree: 18},
			{Game: 12, Trivia: 8, Skill: 52, LabFree: 24},
		},
		Bonuses: []float64{2, 8, 15, 25},
		Points: Points{
			Game:   1,
			Trivia: 1,
			Skill:  0.5,
			GameOverrides: []KeywordRule{
				{Points: 3, Keywords: []string{"diwali", "festival of lights", "navratri", "dussehra"}},
				{Points: 2, Keywords: []string{"independence day", "republic day", "ganesh chaturthi", "cloud wonderland", "work meets play", "halloween", "spooky", "winter wonder"}},
			},
		},
		Fuzzy: Fuzzy{
			LengthRatio:      0.6,
			WordOverlapRatio: 0.7,
			MinOverlapLength: 10,
			MinWordLength:    2,
		},
	}
}

// Clone returns a deep copy.
func (p Policy) Clone() Policy {
	out := p
	out.Milestones = append([]model.Threshold(nil), p.Milestones...)
	out.Bonuses = append([]float64(nil), p.Bonuses...)
	out.Points.GameOverrides = make([]KeywordRule, len(p.Points.GameOverrides))
	for i, r := range p.Points.GameOverrides {
		out.Points.GameOverrides[i] = KeywordRule{
			Points:   r.Points,
			Keywords: append([]string(nil), r.Keywords...),
		}
	}
	return out
}

// Validate reports the first configuration defect, wrapped in ErrInvalidPolicy.
func (p Policy) Validate() error {
	if p.ProgramStart.IsZero() {
		return invalid("program start date is required")
	}
	w := p.FacilitatorWindow
	if w.Start.IsZero() || w.End.IsZero() {
		return invalid("facilitator window needs both start and end")
	}
	if w.End.Before(w.Start) {
		return invalid("facilitator window ends before it starts")
	}
	if err := p.validateMilestones(); err != nil {
		return err
	}
	if err := p.Points.validate(); err != nil {
		return err
	}
	return p.Fuzzy.validate()
}

func (p Policy) validateMilestones() error {
	if len(p.Milestones) != MilestoneTiers {
		return invalid("expected %d milestone tiers, got %d", MilestoneTiers, len(p.Milestones))
	}
	if len(p.Bonuses) != MilestoneTiers {
		return invalid("expected %d milestone bonuses, got %d", MilestoneTiers, len(p.Bonuses))
	}
	for i, t := range p.Milestones {
		if t.Game < 0 || t.Trivia < 0 || t.Skill < 0 || t.LabFree < 0 {
			return invalid("milestone tier %d has a negative threshold", i+1)
		}
		if p.Bonuses[i] < 0 {
			return invalid("milestone tier %d has a negative bonus", i+1)
		}
		if i == 0 {
			continue
		}
		prev := p.Milestones[i-1]
		if t.Game <= prev.Game || t.Trivia <= prev.Trivia || t.Skill <= prev.Skill || t.LabFree <= prev.LabFree {
			return invalid("milestone tier %d must exceed tier %d in every category", i+1, i)
		}
	}
	return nil
}

func (pt Points) validate() error {
	rates := []struct {
		name string
		v    float64
	}{
		{"game", pt.Game}, {"trivia", pt.Trivia}, {"skill", pt.Skill},
	}
	for _, r := range rates {
		if r.v < 0 {
			return invalid("points.%s is negative", r.name)
		}
	}
	for i, r := range pt.GameOverrides {
		if r.Points < 0 {
			return invalid("points.game_overrides[%d] is negative", i)
		}
		if len(r.Keywords) == 0 {
			return invalid("points.game_overrides[%d] has no keywords", i)
		}
		for _, kw := range r.Keywords {
			if strings.TrimSpace(kw) == "" {
				return invalid("points.game_overrides[%d] has a blank keyword", i)
			}
		}
	}
	return nil
}

func (f Fuzzy) validate() error {
	if f.LengthRatio <= 0 || f.LengthRatio > 1 {
		return invalid("fuzzy.length_ratio must be in (0, 1]")
	}
	if f.WordOverlapRatio <= 0 || f.WordOverlapRatio > 1 {
		return invalid("fuzzy.word_overlap_ratio must be in (0, 1]")
	}
	if f.MinOverlapLength < 0 || f.MinWordLength < 0 {
		return invalid("fuzzy length limits must not be negative")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidPolicy, fmt.Sprintf(format, args...))
}
