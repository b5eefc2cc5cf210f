// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// Category is the classification output for a badge name.
type Category string

// Badge categories.
const (
	CategoryGame       Category = "game"
	CategoryTrivia     Category = "trivia"
	CategorySkill      Category = "skill"
	CategoryLabFree    Category = "lab-free"
	CategoryCompletion Category = "completion"
)

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{CategoryGame, CategoryTrivia, CategorySkill, CategoryLabFree, CategoryCompletion}
}

// Badge is a named achievement as extracted from a participant profile.
// Fields mirror the /v1/score request schema.
type Badge struct {
	Name       string `json:"name"`        // free text from the profile page
	EarnedDate string `json:"earned_date"` // ISO-8601 instant or date
}

// ClassifiedBadge is a Badge with its derived category and parsed date.
// EarnedAt is the zero time when EarnedDate did not parse.
type ClassifiedBadge struct {
	Badge
	Category Category
	EarnedAt time.Time
}

// Dated reports whether the badge carries a usable timestamp.
func (b ClassifiedBadge) Dated() bool {
	return !b.EarnedAt.IsZero()
}

// earnedDateLayouts are tried in order. Offsets are honoured; inputs without
// one are taken as UTC.
var earnedDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseEarnedDate parses an earned-date string. The second return value is
// false when no supported layout matches.
func ParseEarnedDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range earnedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.IsZero() {
				return time.Time{}, false
			}
			return t, true
		}
	}
	return time.Time{}, false
}

// Window is an inclusive time range.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies within [Start, End].
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// CategoryCounts holds the per-category counts used for milestones.
type CategoryCounts struct {
	Game    int `json:"game"`
	Trivia  int `json:"trivia"`
	Skill   int `json:"skill"`
	LabFree int `json:"lab_free"`
}

// Threshold is the minimum count per category required for a milestone tier.
type Threshold = CategoryCounts

// Satisfies reports whether every count in c reaches the matching count in t.
func (c CategoryCounts) Satisfies(t Threshold) bool {
	return c.Game >= t.Game && c.Trivia >= t.Trivia && c.Skill >= t.Skill && c.LabFree >= t.LabFree
}

// ScoreBreakdown is the aggregate point result. Total is always the sum of
// the four components.
type ScoreBreakdown struct {
	Total           float64 `json:"total"`
	GamePoints      float64 `json:"game_points"`
	TriviaPoints    float64 `json:"trivia_points"`
	SkillPoints     float64 `json:"skill_points"`
	MilestonePoints float64 `json:"milestone_points"`
}

// MilestoneState is the facilitator-program progress for one evaluation.
type MilestoneState struct {
	Tier            int            `json:"tier"`
	ProgressPercent int            `json:"progress_percent"`
	BonusPoints     float64        `json:"bonus_points"`
	Counts          CategoryCounts `json:"counts"`
	Next            *Threshold     `json:"next,omitempty"` // nil at the top tier
	Remaining       CategoryCounts `json:"remaining"`
}

// ScoredBadge is the per-badge detail of a computation.
type ScoredBadge struct {
	Name       string   `json:"name"`
	EarnedDate string   `json:"earned_date"`
	Category   Category `json:"category"`
	Points     float64  `json:"points"`
	Counted    bool     `json:"counted"` // false when before the program start date
}

// Result is the engine output handed to presentation collaborators.
type Result struct {
	Breakdown ScoreBreakdown  `json:"breakdown"`
	Milestone *MilestoneState `json:"milestone,omitempty"`
	Badges    []ScoredBadge   `json:"badges"`
	Dropped   int             `json:"dropped"` // badges with unparsable dates
}
