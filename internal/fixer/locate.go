package fixer

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Locator finds where a hunk's context occurs in the reference lines
type Locator struct {
	Fuzzy   bool
	matcher *FuzzyMatcher
}

// NewLocator creates a locator. threshold is only used when fuzzy is true.
func NewLocator(fuzzy bool, threshold float64) *Locator {
	return &Locator{Fuzzy: fuzzy, matcher: NewFuzzyMatcher(threshold)}
}

// Locate positions h against ref and advances pos past it.
// It returns ErrEmptyHunk for a hunk without body lines.
func (l *Locator) Locate(h *Hunk, ref []string, pos *Position) (*Resolved, error) {
	t := h.tally()
	if t.body == 0 {
		return nil, ErrEmptyHunk
	}

	pattern := h.Pattern()
	res := &Resolved{
		OldCount: t.context + t.deletions,
		NewCount: t.context + t.additions,
		Section:  h.Section,
	}

	switch {
	case t.deletions == t.body:
		// whole-file deletion
		res.OldStart, res.NewStart = 1, 0
	case len(pattern) == 0:
		// whole-file creation
		res.OldStart, res.NewStart = 0, 1
	case len(ref) == 0:
		return nil, l.notFound(h, ref)
	default:
		start, score, err := l.search(h, pattern, ref, pos, t.body)
		if err != nil {
			return nil, err
		}
		res.Fuzzy, res.Score = score < 1, score
		res.OldStart = start + 1
		if res.OldStart < pos.LastHunk+1 {
			return nil, NewOutOfOrderError(h.Expected(), pos.PrevHeader).
				WithContext("resolved_line", res.OldStart)
		}
		if res.NewCount == 0 {
			res.NewStart = 0
		} else {
			res.NewStart = res.OldStart + pos.Offset
		}
	}

	pos.Offset += res.NewCount - res.OldCount
	pos.LastHunk = max(res.OldStart-1+res.OldCount, 0)
	pos.PrevHeader = strings.TrimSuffix(res.Header(), "\n")
	return res, nil
}

// search returns the 0-based start of the hunk. Exact matches are collected
// from the previous hunk onward, then from the top of the file up to the
// previous hunk plus this hunk's length; fuzzy matching follows the same
// windows only when nothing matched exactly.
func (l *Locator) search(h *Hunk, pattern, ref []string, pos *Position, length int) (int, float64, error) {
	last := min(max(pos.LastHunk, 0), len(ref))
	end := min(last+length, len(ref))

	matches := findAll(ref, pattern, last, len(ref))
	if len(matches) == 0 {
		matches = findAll(ref, pattern, 0, end)
	}
	if len(matches) > 0 {
		return closest(matches, h.Hint.OldStart, h.Hint.HasRange), 1, nil
	}

	if l.Fuzzy {
		if i, score, ok := l.matcher.Best(ref, pattern, last, len(ref)); ok {
			return i, score, nil
		}
		if i, score, ok := l.matcher.Best(ref, pattern, 0, end); ok {
			return i, score, nil
		}
	}
	return -1, 0, l.notFound(h, ref)
}

// findAll returns every start in [from, to) where pattern matches ref line for
// line after trimming surrounding whitespace.
func findAll(ref, pattern []string, from, to int) []int {
	var matches []int
	for i := from; i+len(pattern) <= to; i++ {
		if matchAt(ref, pattern, i) {
			matches = append(matches, i)
		}
	}
	return matches
}

func matchAt(ref, pattern []string, start int) bool {
	for j, p := range pattern {
		if strings.TrimSpace(ref[start+j]) != strings.TrimSpace(p) {
			return false
		}
	}
	return true
}

// closest picks the match whose 1-based line is nearest the stated start.
// Without a usable hint the first match wins; ties keep the earlier match.
func closest(matches []int, hint int, hasHint bool) int {
	if !hasHint || hint <= 0 {
		return matches[0]
	}
	best := matches[0]
	for _, m := range matches[1:] {
		if abs(m+1-hint) < abs(best+1-hint) {
			best = m
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// notFound builds the hunk not found error. The closest reference window is
// attached as a line diff for diagnostics but kept out of the message.
func (l *Locator) notFound(h *Hunk, ref []string) *FixerError {
	err := NewHunkNotFoundError(h.Expected())
	if h.Hint.HasRange {
		err.WithContext("stated_line", h.Hint.OldStart)
	}

	pattern := h.Pattern()
	probe := &FuzzyMatcher{Threshold: 0}
	if i, score, ok := probe.Best(ref, pattern, 0, len(ref)); ok {
		err.WithContext("closest_line", i+1).
			WithContext("closest_score", score).
			WithContext("closest", closestDiff(pattern, ref[i:i+len(pattern)]))
	}
	return err
}

// closestDiff renders a line diff from the expected lines to the reference window
func closestDiff(expected, found []string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(strings.Join(expected, "\n")+"\n", strings.Join(found, "\n")+"\n")
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
		}
	}
	return sb.String()
}
