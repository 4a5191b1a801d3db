// Package fuzzy provides the approximate string matcher used by header analysis and
// state normalization. Distances are normalized to [0,1] (0 is identical) so the
// confidence formulas built on them stay comparable across candidate lengths.
package fuzzy

import (
	"strings"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// DefaultThreshold is the largest normalized distance still accepted as a match.
const DefaultThreshold = 0.4

// Match is the best accepted candidate for a query.
type Match struct {
	Candidate string
	Index     int
	Distance  float64
}

// Matcher finds the closest candidate within an acceptance threshold.
type Matcher struct {
	threshold float64
}

// NewMatcher creates a matcher. Thresholds outside (0,1] fall back to DefaultThreshold.
func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Matcher{threshold: threshold}
}

// Threshold returns the acceptance threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Distance returns the Levenshtein distance between a and b divided by the longer
// length, compared case-insensitively.
func Distance(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 0
	}
	return float64(fuzzy.LevenshteinDistance(a, b)) / float64(longest)
}

// Best returns the closest candidate to query. ok is false when no candidate is within
// the threshold. Ties keep the earliest candidate.
func (m *Matcher) Best(query string, candidates []string) (Match, bool) {
	if strings.TrimSpace(query) == "" {
		return Match{}, false
	}
	best := Match{Index: -1, Distance: 2}
	for i, c := range candidates {
		d := Distance(query, c)
		if d < best.Distance {
			best = Match{Candidate: c, Index: i, Distance: d}
		}
	}
	if best.Index < 0 || best.Distance > m.threshold {
		return Match{}, false
	}
	return best, true
}

// Confidence converts a distance into a 0..scale score: round((1-d)*scale).
func Confidence(distance float64, scale int) int {
	if distance < 0 {
		distance = 0
	}
	if distance > 1 {
		distance = 1
	}
	return int((1-distance)*float64(scale) + 0.5)
}
