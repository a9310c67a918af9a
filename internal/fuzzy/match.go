// Package fuzzy matches free-text topic keywords against catalog tags.
//
// Matching is exact-first: a candidate equal to the query after
// normalization always wins. Otherwise the candidate with the highest
// Ratcliff/Obershelp similarity at or above Cutoff is returned.
package fuzzy

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Cutoff is the minimum similarity ratio for an approximate match.
const Cutoff = 0.6

// Normalize lower-cases and trims a keyword or tag.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Ratio returns the difflib similarity of a and b in [0, 1]:
// twice the number of matched characters over the combined length.
func Ratio(a, b string) float64 {
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

// Match returns the candidate that best matches query, in its original
// case. The second result is false when nothing qualifies.
func Match(query string, candidates []string) (string, bool) {
	q := Normalize(query)
	if q == "" || len(candidates) == 0 {
		return "", false
	}

	normalized := make([]string, len(candidates))
	for i, c := range candidates {
		normalized[i] = Normalize(c)
		if normalized[i] == q {
			return c, true
		}
	}

	// Same evaluation order as difflib.get_close_matches: the query is the
	// second sequence and the cheap upper bounds are checked first.
	m := difflib.NewMatcher(nil, runes(q))
	best := -1
	bestScore := 0.0
	for i, c := range normalized {
		if c == "" {
			continue
		}
		m.SetSeq1(runes(c))
		if m.RealQuickRatio() < Cutoff || m.QuickRatio() < Cutoff {
			continue
		}
		score := m.Ratio()
		if score >= Cutoff && score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return "", false
	}
	return candidates[best], true
}

// MatchAny reports whether query matches any tag, evaluated one tag at a
// time. It stops at the first accepted tag.
func MatchAny(query string, tags []string) bool {
	for _, tag := range tags {
		if got, ok := Match(query, []string{tag}); ok && got == tag {
			return true
		}
	}
	return false
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
