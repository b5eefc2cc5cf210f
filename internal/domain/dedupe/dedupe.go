// Package dedupe collapses badge lists so that one real-world achievement
// contributes at most once.
package dedupe

import (
	"github.com/okian/arcadepoints/internal/domain/model"
	"github.com/okian/arcadepoints/internal/domain/normalize"
)

const dayLayout = "2006-01-02"

// Key returns the canonical identity of a badge.
//
// Skill and lab-free badges are identified by name alone, since they can be
// earned once. Everything else is identified by name and UTC day, so a
// monthly game re-earned on another day stays distinct.
func Key(b model.ClassifiedBadge) string {
	key := "name:" + normalize.Name(b.Name)
	switch b.Category {
	case model.CategorySkill, model.CategoryLabFree:
		return key
	default:
		return key + "|day:" + b.EarnedAt.UTC().Format(dayLayout)
	}
}

// Report is the outcome of a dedupe pass.
type Report struct {
	Kept       []model.ClassifiedBadge
	Malformed  int // dropped for an unparsable date
	Duplicates int // dropped because an earlier badge had the same key
}

// Run drops undated badges and keeps the first badge seen for each key.
// Input order is preserved and decides which duplicate survives.
func Run(in []model.ClassifiedBadge) Report {
	seen := newSeenSet(len(in))
	r := Report{Kept: make([]model.ClassifiedBadge, 0, len(in))}
	for _, b := range in {
		if !b.Dated() {
			r.Malformed++
			continue
		}
		if seen.seenAndRecord(Key(b)) {
			r.Duplicates++
			continue
		}
		r.Kept = append(r.Kept, b)
	}
	return r
}

// Badges is Run without the counters.
func Badges(in []model.ClassifiedBadge) []model.ClassifiedBadge {
	return Run(in).Kept
}

// seenSet records keys for a single pass. It is not shared between calls,
// so it needs no locking.
type seenSet map[string]struct{}

func newSeenSet(capacity int) seenSet {
	return make(seenSet, capacity)
}

// seenAndRecord reports whether key was already seen and records it if not.
func (s seenSet) seenAndRecord(key string) bool {
	if _, ok := s[key]; ok {
		return true
	}
	s[key] = struct{}{}
	return false
}
