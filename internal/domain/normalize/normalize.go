// Package normalize canonicalizes badge names for comparison.
package normalize

import (
	"regexp"
	"strings"
)

var (
	skillsBoostPrefix = regexp.MustCompile(`^skills boost `)
	skillBadgePrefix  = regexp.MustCompile(`^skill badge\s*:\s*`)
	labFreePrefix     = regexp.MustCompile(`^(?:lab-free|lab free|labfree)\s*:\s*`)
	deprecatedPrefix  = regexp.MustCompile(`^deprecated `)
	nonWord           = regexp.MustCompile(`[^\w\s]`)
	whitespace        = regexp.MustCompile(`\s+`)
)

// Name returns the canonical comparison form of a raw badge name.
//
// Steps run in order: lower-case and trim, strip the "skills boost ",
// "skill badge:", "lab-free:" and "deprecated " prefixes, replace punctuation
// with spaces, collapse whitespace. The pipeline is repeated until the output
// is stable so that Name(Name(x)) == Name(x) for every x.
func Name(raw string) string {
	out := pass(raw)
	// After the first pass only ASCII word characters and single spaces
	// remain, so any further change is a prefix strip and shortens out.
	for {
		next := pass(out)
		if next == out {
			return out
		}
		out = next
	}
}

func pass(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = skillsBoostPrefix.ReplaceAllString(s, "")
	s = skillBadgePrefix.ReplaceAllString(s, "")
	s = labFreePrefix.ReplaceAllString(s, "")
	s = deprecatedPrefix.ReplaceAllString(s, "")
	s = nonWord.ReplaceAllString(s, " ")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
