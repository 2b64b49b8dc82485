package patchline

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies the category of a single patch line
type Kind int

const (
	// Content is any line no header rule recognizes (hunk body, preamble)
	Content Kind = iota
	// DiffHeader is "diff --git a/<path> b/<path>"
	DiffHeader
	// ModeLine is "new file mode" or "deleted file mode"
	ModeLine
	// IndexLine is "index <hash>..<hash>[ <mode>]"
	IndexLine
	// SimilarityLine is "similarity index <n>%"
	SimilarityLine
	// BinaryLine is "Binary files <a> and <b> differ"
	BinaryLine
	// RenameFrom is "rename from <path>"
	RenameFrom
	// RenameTo is "rename to <path>"
	RenameTo
	// FileStart is "--- <path>"
	FileStart
	// FileEnd is "+++ <path>"
	FileEnd
	// HunkHeader is "@@ -a,b +c,d @@<context>"
	HunkHeader
	// NoNewline is the "\ No newline at end of file" marker
	NoNewline
)

// String returns the name of the kind
func (k Kind) String() string {
	switch k {
	case Content:
		return "content"
	case DiffHeader:
		return "diff"
	case ModeLine:
		return "mode"
	case IndexLine:
		return "index"
	case SimilarityLine:
		return "similarity"
	case BinaryLine:
		return "binary"
	case RenameFrom:
		return "rename from"
	case RenameTo:
		return "rename to"
	case FileStart:
		return "file start"
	case FileEnd:
		return "file end"
	case HunkHeader:
		return "hunk header"
	case NoNewline:
		return "no newline"
	default:
		return "unknown"
	}
}

// IsHeader reports whether the kind belongs to a file entry's header block
func (k Kind) IsHeader() bool {
	switch k {
	case ModeLine, IndexLine, SimilarityLine, BinaryLine, RenameFrom, RenameTo, FileStart, FileEnd:
		return true
	}
	return false
}

// DevNull is the "no file" sentinel used by creation and deletion headers
const DevNull = "/dev/null"

// NoNewlineMarker is the metadata line git emits after a line without terminator
const NoNewlineMarker = `\ No newline at end of file`

// Range is the parsed numeric part of a hunk header.
// HasRange is false for bare "@@" headers that carry no usable position.
type Range struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	HasRange bool
}

// Line is one classified patch line and the fields its rule captured
type Line struct {
	Kind Kind
	// Text is the line without its terminator
	Text string

	// OldPath and NewPath hold diff, binary, rename and file header paths as written,
	// prefixes included. Rename and file header lines only fill the side they name.
	OldPath string
	NewPath string

	OldHash string
	NewHash string
	Mode    string
	NewFile bool

	Similarity int
	Range      Range
	Section    string
}

const pathPattern = `[^ \n\t]+(?: [^ \n\t]+)*`

var (
	diffPrefixedRegex = regexp.MustCompile(`^diff --git (a/` + pathPattern + `|/dev/null) (b/` + pathPattern + `|/dev/null)$`)
	diffBareRegex     = regexp.MustCompile(`^diff --git (` + pathPattern + `) (` + pathPattern + `)$`)
	modeRegex         = regexp.MustCompile(`^(new|deleted) file mode ([0-7]{6})$`)
	indexRegex        = regexp.MustCompile(`^index ([0-9a-f]{7,64})\.\.([0-9a-f]{7,64})(?: ([0-7]{6}))?$`)
	similarityRegex   = regexp.MustCompile(`^similarity index ([0-9]{1,3})%$`)
	binaryRegex       = regexp.MustCompile(`^Binary files (a/` + pathPattern + `|/dev/null) and (b/` + pathPattern + `|/dev/null) differ$`)
	renameFromRegex   = regexp.MustCompile(`^rename from (` + pathPattern + `)$`)
	renameToRegex     = regexp.MustCompile(`^rename to (` + pathPattern + `)$`)
	fileStartRegex    = regexp.MustCompile(`^--- (` + pathPattern + `)(?:\t.*)?$`)
	fileEndRegex      = regexp.MustCompile(`^\+\+\+ (` + pathPattern + `)(?:\t.*)?$`)
	hunkRegex         = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@(.*)$`)
)

type rule struct {
	kind  Kind
	match func(text string) (Line, bool)
}

// rules are tried in order and the first match wins.
// Index and similarity lines share one slot.
var rules = []rule{
	{DiffHeader, matchDiff},
	{ModeLine, matchMode},
	{IndexLine, matchIndexOrSimilarity},
	{BinaryLine, matchBinary},
	{RenameFrom, matchRenameFrom},
	{RenameTo, matchRenameTo},
	{FileStart, matchFileStart},
	{FileEnd, matchFileEnd},
	{HunkHeader, matchHunk},
	{NoNewline, matchNoNewline},
}

// RuleOrder returns the kinds in the order their rules are tried
func RuleOrder() []Kind {
	order := make([]Kind, len(rules))
	for i, r := range rules {
		order[i] = r.kind
	}
	return order
}

// Classify recognizes the category of one patch line.
// The line may carry its terminator; it is ignored for matching.
func Classify(line string) Line {
	text := TrimTerminator(line)
	for _, r := range rules {
		if l, ok := r.match(text); ok {
			l.Text = text
			return l
		}
	}
	return Line{Kind: Content, Text: text}
}

// TrimTerminator removes one trailing "\r\n", "\n" or "\r"
func TrimTerminator(line string) string {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return line[:len(line)-2]
	case strings.HasSuffix(line, "\n"), strings.HasSuffix(line, "\r"):
		return line[:len(line)-1]
	}
	return line
}

func matchDiff(text string) (Line, bool) {
	if !strings.HasPrefix(text, "diff --git ") {
		return Line{}, false
	}
	m := diffPrefixedRegex.FindStringSubmatch(text)
	if m == nil {
		m = diffBareRegex.FindStringSubmatch(text)
	}
	if m == nil {
		return Line{}, false
	}
	return Line{Kind: DiffHeader, OldPath: m[1], NewPath: m[2]}, true
}

func matchMode(text string) (Line, bool) {
	m := modeRegex.FindStringSubmatch(text)
	if m == nil {
		return Line{}, false
	}
	return Line{Kind: ModeLine, NewFile: m[1] == "new", Mode: m[2]}, true
}

func matchIndexOrSimilarity(text string) (Line, bool) {
	if m := indexRegex.FindStringSubmatch(text); m != nil {
		return Line{Kind: IndexLine, OldHash: m[1], NewHash: m[2], Mode: m[3]}, true
	}
	if m := similarityRegex.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n > 100 {
			return Line{}, false
		}
		return Line{Kind: SimilarityLine, Similarity: n}, true
	}
	return Line{}, false
}

func matchBinary(text string) (Line, bool) {
	m := binaryRegex.FindStringSubmatch(text)
	if m == nil {
		return Line{}, false
	}
	return Line{Kind: BinaryLine, OldPath: m[1], NewPath: m[2]}, true
}

func matchRenameFrom(text string) (Line, bool) {
	m := renameFromRegex.FindStringSubmatch(text)
	if m == nil {
		return Line{}, false
	}
	return Line{Kind: RenameFrom, OldPath: m[1]}, true
}

func matchRenameTo(text string) (Line, bool) {
	m := renameToRegex.FindStringSubmatch(text)
	if m == nil {
		return Line{}, false
	}
	return Line{Kind: RenameTo, NewPath: m[1]}, true
}

func matchFileStart(text string) (Line, bool) {
	m := fileStartRegex.FindStringSubmatch(text)
	if m == nil {
		return Line{}, false
	}
	return Line{Kind: FileStart, OldPath: m[1]}, true
}

func matchFileEnd(text string) (Line, bool) {
	m := fileEndRegex.FindStringSubmatch(text)
	if m == nil {
		return Line{}, false
	}
	return Line{Kind: FileEnd, NewPath: m[1]}, true
}

func matchHunk(text string) (Line, bool) {
	if !strings.HasPrefix(text, "@@") {
		return Line{}, false
	}
	if m := hunkRegex.FindStringSubmatch(text); m != nil {
		r := Range{
			OldStart: atoi(m[1]),
			OldCount: countOrOne(m[2]),
			NewStart: atoi(m[3]),
			NewCount: countOrOne(m[4]),
			HasRange: true,
		}
		return Line{Kind: HunkHeader, Range: r, Section: m[5]}, true
	}
	// Loose header without usable numbers; keep whatever follows a closing "@@".
	rest := text[2:]
	if strings.HasPrefix(rest, "@") {
		return Line{}, false
	}
	section := ""
	if i := strings.Index(rest, "@@"); i >= 0 {
		section = rest[i+2:]
	}
	return Line{Kind: HunkHeader, Section: section}, true
}

func matchNoNewline(text string) (Line, bool) {
	if text != NoNewlineMarker {
		return Line{}, false
	}
	return Line{Kind: NoNewline}, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func countOrOne(s string) int {
	if s == "" {
		return 1
	}
	return atoi(s)
}
