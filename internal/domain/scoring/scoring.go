// Package scoring turns classified badges into points.
package scoring

import (
	"strings"
	"time"

	"github.com/okian/arcadepoints/internal/domain/dedupe"
	"github.com/okian/arcadepoints/internal/domain/model"
	"github.com/okian/arcadepoints/internal/domain/policy"
)

// keywordRule is a policy.KeywordRule with lower-cased keywords.
type keywordRule struct {
	points   float64
	keywords []string
}

// Calculator applies the point rules of a policy. It is immutable after
// construction and safe for concurrent use.
type Calculator struct {
	programStart  time.Time
	gamePoints    float64
	triviaPoints  float64
	skillPoints   float64
	gameOverrides []keywordRule
}

// NewCalculator creates a calculator from a validated policy.
func NewCalculator(p policy.Policy) *Calculator {
	c := &Calculator{
		programStart:  p.ProgramStart,
		gamePoints:    p.Points.Game,
		triviaPoints:  p.Points.Trivia,
		skillPoints:   p.Points.Skill,
		gameOverrides: make([]keywordRule, 0, len(p.Points.GameOverrides)),
	}
	for _, r := range p.Points.GameOverrides {
		kr := keywordRule{points: r.Points}
		for _, kw := range r.Keywords {
			kr.keywords = append(kr.keywords, strings.ToLower(strings.TrimSpace(kw)))
		}
		c.gameOverrides = append(c.gameOverrides, kr)
	}
	return c
}

// Score returns the points of a single badge, ignoring the date floor.
func (c *Calculator) Score(b model.ClassifiedBadge) float64 {
	switch b.Category {
	case model.CategoryGame:
		name := strings.ToLower(b.Name)
		for _, r := range c.gameOverrides {
			for _, kw := range r.keywords {
				if strings.Contains(name, kw) {
					return r.points
				}
			}
		}
		return c.gamePoints
	case model.CategoryTrivia:
		return c.triviaPoints
	case model.CategorySkill:
		return c.skillPoints
	default:
		return 0
	}
}

// Counts reports whether a badge passes the program date floor.
func (c *Calculator) Counts(b model.ClassifiedBadge) bool {
	return b.Dated() && !b.EarnedAt.Before(c.programStart)
}

// Totals dedupes badges, applies the date floor and sums points per
// category. MilestonePoints is always zero here.
func (c *Calculator) Totals(badges []model.ClassifiedBadge) model.ScoreBreakdown {
	_, bd := c.Details(dedupe.Badges(badges))
	return bd
}

// Details scores an already deduplicated list, returning per-badge detail
// in input order alongside the breakdown.
func (c *Calculator) Details(kept []model.ClassifiedBadge) ([]model.ScoredBadge, model.ScoreBreakdown) {
	var bd model.ScoreBreakdown
	out := make([]model.ScoredBadge, 0, len(kept))
	for _, b := range kept {
		sb := model.ScoredBadge{
			Name:       b.Name,
			EarnedDate: b.EarnedDate,
			Category:   b.Category,
			Counted:    c.Counts(b),
		}
		if sb.Counted {
			sb.Points = c.Score(b)
			switch b.Category {
			case model.CategoryGame:
				bd.GamePoints += sb.Points
			case model.CategoryTrivia:
				bd.TriviaPoints += sb.Points
			case model.CategorySkill:
				bd.SkillPoints += sb.Points
			}
		}
		out = append(out, sb)
	}
	bd.Total = bd.GamePoints + bd.TriviaPoints + bd.SkillPoints
	return out, bd
}
