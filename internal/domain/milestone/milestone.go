// Package milestone evaluates facilitator-program tiers.
package milestone

import (
	"github.com/okian/arcadepoints/internal/domain/dedupe"
	"github.com/okian/arcadepoints/internal/domain/model"
	"github.com/okian/arcadepoints/internal/domain/policy"
)

// Evaluator maps category counts within a window to a tier and bonus.
type Evaluator struct {
	tiers   []model.Threshold
	bonuses []float64
}

// NewEvaluator creates an evaluator from a validated policy.
func NewEvaluator(p policy.Policy) *Evaluator {
	return &Evaluator{
		tiers:   append([]model.Threshold(nil), p.Milestones...),
		bonuses: append([]float64(nil), p.Bonuses...),
	}
}

// Evaluate dedupes badges, keeps those earned inside window and evaluates
// the resulting counts.
func (e *Evaluator) Evaluate(badges []model.ClassifiedBadge, window model.Window) model.MilestoneState {
	return e.ForCounts(Count(dedupe.Badges(badges), window))
}

// Count tallies milestone categories for badges earned inside window.
// Completion badges are not counted.
func Count(badges []model.ClassifiedBadge, window model.Window) model.CategoryCounts {
	var c model.CategoryCounts
	for _, b := range badges {
		if !b.Dated() || !window.Contains(b.EarnedAt) {
			continue
		}
		switch b.Category {
		case model.CategoryGame:
			c.Game++
		case model.CategoryTrivia:
			c.Trivia++
		case model.CategorySkill:
			c.Skill++
		case model.CategoryLabFree:
			c.LabFree++
		}
	}
	return c
}

// ForCounts returns the highest tier fully satisfied by counts, or tier 0.
func (e *Evaluator) ForCounts(counts model.CategoryCounts) model.MilestoneState {
	st := model.MilestoneState{Counts: counts}
	for i := len(e.tiers) - 1; i >= 0; i-- {
		if counts.Satisfies(e.tiers[i]) {
			st.Tier = i + 1
			st.BonusPoints = e.bonuses[i]
			break
		}
	}
	if len(e.tiers) > 0 {
		st.ProgressPercent = st.Tier * 100 / len(e.tiers)
	}
	if st.Tier < len(e.tiers) {
		next := e.tiers[st.Tier]
		st.Next = &next
		st.Remaining = remaining(counts, next)
	}
	return st
}

func remaining(have model.CategoryCounts, want model.Threshold) model.CategoryCounts {
	return model.CategoryCounts{
		Game:    max(0, want.Game-have.Game),
		Trivia:  max(0, want.Trivia-have.Trivia),
		Skill:   max(0, want.Skill-have.Skill),
		LabFree: max(0, want.LabFree-have.LabFree),
	}
}
