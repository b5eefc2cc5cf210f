// Package classify maps raw badge names onto badge categories.
package classify

import (
	"strings"

	"github.com/okian/arcadepoints/internal/domain/catalog"
	"github.com/okian/arcadepoints/internal/domain/model"
	"github.com/okian/arcadepoints/internal/domain/normalize"
	"github.com/okian/arcadepoints/internal/domain/policy"
)

const skillsBoostPrefix = "skills boost "

// Classifier assigns a category to a badge name. It is immutable after
// construction and safe for concurrent use.
type Classifier struct {
	specialEvents []string            // lower-cased
	gameKeywords  []string            // lower-cased
	labFree       map[string]struct{} // normalized titles
	skills        []string            // normalized titles, catalog order
	matcher       *Matcher
}

// New builds a classifier over a catalog. Entries are pre-lowered and
// pre-normalized once here so Classify does no catalog work per call.
func New(c catalog.Catalog, f policy.Fuzzy) *Classifier {
	cl := &Classifier{
		specialEvents: lowerAll(c.SpecialEvents),
		gameKeywords:  lowerAll(c.GameKeywords),
		labFree:       make(map[string]struct{}, len(c.LabFree)),
		skills:        make([]string, 0, len(c.SkillBadges)),
		matcher:       NewMatcher(f),
	}
	for _, t := range c.LabFree {
		if n := normalize.Name(t); n != "" {
			cl.labFree[n] = struct{}{}
		}
	}
	for _, t := range c.SkillBadges {
		if n := normalize.Name(t); n != "" {
			cl.skills = append(cl.skills, n)
		}
	}
	return cl
}

// Classify returns the category of a raw badge name. Rules are checked in
// priority order and the first hit wins; unknown names are completions.
func (c *Classifier) Classify(raw string) model.Category {
	clean := strings.TrimSpace(strings.ToLower(raw))
	clean = strings.TrimSpace(strings.TrimPrefix(clean, skillsBoostPrefix))

	if strings.Contains(clean, "trivia") {
		return model.CategoryTrivia
	}
	// Seasonal events read like skill or completion titles, so they are
	// pinned to game before any other scan.
	if containsAny(clean, c.specialEvents) {
		return model.CategoryGame
	}
	if containsAny(clean, c.gameKeywords) {
		return model.CategoryGame
	}

	n := normalize.Name(raw)
	// Lab-free titles share many words with skill titles; exact match only.
	if _, ok := c.labFree[n]; ok {
		return model.CategoryLabFree
	}
	for _, s := range c.skills {
		if c.matcher.matchNormalized(n, s) {
			return model.CategorySkill
		}
	}
	return model.CategoryCompletion
}

// ClassifyAll classifies badges in order, attaching parsed dates.
func (c *Classifier) ClassifyAll(badges []model.Badge) []model.ClassifiedBadge {
	out := make([]model.ClassifiedBadge, len(badges))
	for i, b := range badges {
		at, _ := model.ParseEarnedDate(b.EarnedDate)
		out[i] = model.ClassifiedBadge{
			Badge:    b,
			Category: c.Classify(b.Name),
			EarnedAt: at,
		}
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(strings.ToLower(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
