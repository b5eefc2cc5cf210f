package classify

import (
	"strings"
	"unicode/utf8"

	"github.com/okian/arcadepoints/internal/domain/normalize"
	"github.com/okian/arcadepoints/internal/domain/policy"
)

// Matcher decides whether a badge name refers to a skill catalog title.
// It tolerates prefix and punctuation drift while keeping short titles from
// matching long unrelated names.
type Matcher struct {
	lengthRatio      float64
	wordOverlapRatio float64
	minOverlapLength int
	minWordLength    int
}

// NewMatcher creates a matcher from the fuzzy tolerances of a policy.
func NewMatcher(f policy.Fuzzy) *Matcher {
	return &Matcher{
		lengthRatio:      f.LengthRatio,
		wordOverlapRatio: f.WordOverlapRatio,
		minOverlapLength: f.MinOverlapLength,
		minWordLength:    f.MinWordLength,
	}
}

// Matches reports whether a and b name the same skill badge.
func (m *Matcher) Matches(a, b string) bool {
	return m.matchNormalized(normalize.Name(a), normalize.Name(b))
}

// matchNormalized is Matches for already-normalized inputs.
func (m *Matcher) matchNormalized(n1, n2 string) bool {
	if n1 == "" || n2 == "" {
		return false
	}
	if n1 == n2 {
		return true
	}

	l1, l2 := utf8.RuneCountInString(n1), utf8.RuneCountInString(n2)
	minLen, maxLen := min(l1, l2), max(l1, l2)

	// Containment only counts when the lengths are comparable.
	if float64(minLen)/float64(maxLen) >= m.lengthRatio {
		if strings.Contains(n1, n2) || strings.Contains(n2, n1) {
			return true
		}
	}

	if l1 <= m.minOverlapLength || l2 <= m.minOverlapLength {
		return false
	}
	w1 := m.words(n1)
	w2 := m.words(n2)
	if len(w1) == 0 || len(w2) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(w2))
	for _, w := range w2 {
		set[w] = struct{}{}
	}
	matching := 0
	for _, w := range w1 {
		if _, ok := set[w]; ok {
			matching++
		}
	}
	ratio := float64(matching) / float64(min(len(w1), len(w2)))
	return ratio >= m.wordOverlapRatio
}

// words splits a normalized name and keeps words longer than minWordLength.
func (m *Matcher) words(n string) []string {
	fields := strings.Fields(n)
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) > m.minWordLength {
			out = append(out, f)
		}
	}
	return out
}
