package patchline

import (
	"errors"
	"strings"
)

var (
	// ErrEmbeddedLineFeed is returned for a line feed in the middle of a line
	ErrEmbeddedLineFeed = errors.New("line feed in middle of line")
	// ErrBadCarriageReturn is returned for a carriage return in the middle of a line
	ErrBadCarriageReturn = errors.New("carriage return in middle of line")
	// ErrBadTerminator is returned for lines ending in "\n\r", which only appear
	// after a previous normalization went wrong
	ErrBadTerminator = errors.New(`line ends with "\n\r"`)
)

// Normalize returns the canonical form of a raw line for the given kind.
// Every result ends in exactly one "\n". Additions also lose trailing whitespace;
// all other kinds keep their content byte for byte.
func Normalize(raw string, kind Kind) (string, error) {
	if raw == "" {
		return "\n", nil
	}
	if strings.HasSuffix(raw, "\n\r") {
		return "", ErrBadTerminator
	}

	core := TrimTerminator(raw)
	if strings.Contains(core, "\n") {
		return "", ErrEmbeddedLineFeed
	}
	if strings.Contains(core, "\r") {
		return "", ErrBadCarriageReturn
	}

	if kind == Content && strings.HasPrefix(core, "+") {
		core = strings.TrimRight(core, " \t\f\v")
	}
	return core + "\n", nil
}

// SplitLines splits text after every "\n", keeping terminators.
// A final line without terminator is kept as is. A "\r" right after "\n" stays
// on the line it follows so Normalize sees the "\n\r" ending, unless it
// starts a blank CRLF line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	out := lines[:0]
	for _, line := range lines {
		if n := len(out); n > 0 && strings.HasPrefix(line, "\r") && line != "\r\n" {
			out[n-1] += "\r"
			line = line[1:]
			if line == "" {
				continue
			}
		}
		out = append(out, line)
	}
	return out
}
