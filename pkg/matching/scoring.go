package matching

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/Ramsey-B/aster/pkg/normalizers"
)

// Scorer provides string comparison primitives for the match engine
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// ExactMatch returns 1.0 for exact match, 0.0 otherwise
func (s *Scorer) ExactMatch(a, b string, caseSensitive bool) float64 {
	if !caseSensitive {
		a = strings.ToLower(a)
		b = strings.ToLower(b)
	}
	if a == b {
		return 1.0
	}
	return 0.0
}

// Levenshtein converts edit distance to a similarity score between 0.0 and
// 1.0: 1 - distance/max(len), floored at 0. Either side empty scores 0;
// identical strings score exactly 1.
func (s *Scorer) Levenshtein(a, b string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	if a == b {
		return 1.0
	}

	distance := levenshtein.ComputeDistance(a, b)
	maxLen := len([]rune(a))
	if lb := len([]rune(b)); lb > maxLen {
		maxLen = lb
	}

	similarity := 1.0 - float64(distance)/float64(maxLen)
	if similarity < 0 {
		return 0.0
	}
	return similarity
}

// NameSimilarity normalizes both names and scores them with Levenshtein.
func (s *Scorer) NameSimilarity(a, b string) float64 {
	return s.Levenshtein(normalizers.NormalizeName(a), normalizers.NormalizeName(b))
}
