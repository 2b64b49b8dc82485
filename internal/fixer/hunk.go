package fixer

import (
	"fmt"
	"strings"

	"github.com/syou6162/git-patch-fixer/internal/patchline"
)

type lineTag int

const (
	tagOther lineTag = iota
	tagContext
	tagAddition
	tagDeletion
	tagMarker
)

// tagOf classifies a normalized hunk body line. Blank lines count as context.
func tagOf(line string) lineTag {
	text := strings.TrimSuffix(line, "\n")
	switch {
	case text == "":
		return tagContext
	case text == patchline.NoNewlineMarker:
		return tagMarker
	case text[0] == ' ':
		return tagContext
	case text[0] == '+':
		return tagAddition
	case text[0] == '-':
		return tagDeletion
	}
	return tagOther
}

// Hunk is a hunk body collected from the patch before it has been positioned
type Hunk struct {
	// Hint is the range stated in the original header, used only to pick between matches
	Hint    patchline.Range
	Section string
	// Lines are normalized body lines, each ending in "\n"
	Lines []string
}

// Pattern returns the text the hunk expects to find in the reference:
// context and deletion lines without their prefix, in order.
func (h *Hunk) Pattern() []string {
	var pattern []string
	for _, line := range h.Lines {
		switch tagOf(line) {
		case tagContext, tagDeletion:
			text := strings.TrimSuffix(line, "\n")
			if text != "" {
				text = text[1:]
			}
			pattern = append(pattern, text)
		}
	}
	return pattern
}

// Expected returns the context and deletion lines as written, for diagnostics
func (h *Hunk) Expected() []string {
	var lines []string
	for _, line := range h.Lines {
		switch tagOf(line) {
		case tagContext, tagDeletion:
			lines = append(lines, strings.TrimSuffix(line, "\n"))
		}
	}
	return lines
}

type tally struct {
	context   int
	additions int
	deletions int
	// body counts every line except no-newline markers
	body int
}

func (h *Hunk) tally() tally {
	var t tally
	for _, line := range h.Lines {
		switch tagOf(line) {
		case tagContext:
			t.context++
		case tagAddition:
			t.additions++
		case tagDeletion:
			t.deletions++
		case tagMarker:
			continue
		}
		t.body++
	}
	return t
}

// Resolved is the corrected position of a hunk
type Resolved struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Section  string
	// Fuzzy is set when the position came from approximate matching
	Fuzzy bool
	Score float64
}

// Header renders the hunk header, using the short form for single-line ranges
func (r *Resolved) Header() string {
	return fmt.Sprintf("@@ -%s +%s @@%s\n",
		formatRange(r.OldStart, r.OldCount),
		formatRange(r.NewStart, r.NewCount),
		r.Section)
}

func formatRange(start, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}

// Position is the per-entry state carried from one hunk to the next
type Position struct {
	// Offset is the net line delta of the hunks resolved so far
	Offset int
	// LastHunk is the 0-based index just past the previous hunk's old range
	LastHunk int
	// PrevHeader is the header emitted for the previous hunk
	PrevHeader string
}
