package fixer

import "strings"

// DefaultFuzzyThreshold is the mean line similarity a fuzzy match must exceed
const DefaultFuzzyThreshold = 0.6

// FuzzyMatcher scores candidate positions by per-line character overlap
type FuzzyMatcher struct {
	Threshold float64 // Similarity threshold (0.0 to 1.0)
}

// NewFuzzyMatcher creates a new FuzzyMatcher with the given threshold
func NewFuzzyMatcher(threshold float64) *FuzzyMatcher {
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}
	return &FuzzyMatcher{Threshold: threshold}
}

// LineSimilarity compares two lines after trimming surrounding whitespace.
// It counts the characters both lines share (as multisets) and returns
// 2*common / (len1+len2).
func LineSimilarity(a, b string) float64 {
	l1 := []rune(strings.TrimSpace(a))
	l2 := []rune(strings.TrimSpace(b))

	if len(l1) == 0 && len(l2) == 0 {
		return 1.0
	}
	if string(l1) == string(l2) {
		return 1.0
	}
	if len(l1) == 0 || len(l2) == 0 {
		return 0.0
	}

	counts := make(map[rune]int, len(l1))
	for _, r := range l1 {
		counts[r]++
	}
	common := 0
	for _, r := range l2 {
		if counts[r] > 0 {
			counts[r]--
			common++
		}
	}
	return 2.0 * float64(common) / float64(len(l1)+len(l2))
}

// Score returns the mean line similarity of pattern against ref starting at start
func (m *FuzzyMatcher) Score(ref, pattern []string, start int) float64 {
	if len(pattern) == 0 {
		return 0
	}
	total := 0.0
	for j, p := range pattern {
		total += LineSimilarity(ref[start+j], p)
	}
	return total / float64(len(pattern))
}

// Best returns the highest scoring start in [from, to) whose window fits before to.
// Ties keep the earliest start. ok is false when no score exceeds the threshold.
func (m *FuzzyMatcher) Best(ref, pattern []string, from, to int) (int, float64, bool) {
	bestPos, bestScore := -1, 0.0
	for i := from; i+len(pattern) <= to; i++ {
		score := m.Score(ref, pattern, i)
		if score > m.Threshold && score > bestScore {
			bestPos, bestScore = i, score
		}
	}
	return bestPos, bestScore, bestPos >= 0
}
