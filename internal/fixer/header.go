package fixer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/syou6162/git-patch-fixer/internal/patchline"
	"github.com/syou6162/git-patch-fixer/internal/reference"
)

// DefaultMode is used when a creation or deletion names no file mode
const DefaultMode = "100644"

// zeroID is the abbreviated all-zero object id of a deleted file
const zeroID = "0000000"

// extendedHeaderRegex matches git extended headers that are passed through as is
var extendedHeaderRegex = regexp.MustCompile(`^(old mode|new mode|copy from|copy to|dissimilarity index) `)

// FileEntry is the reconciled view of one file entry's header block.
// Paths carry no a/ or b/ prefix.
type FileEntry struct {
	OldPath string
	NewPath string
	Create  bool
	Delete  bool
	Rename  bool
	Binary  bool
	// Mode is the file mode for creations and deletions
	Mode string
	// Similarity is -1 when the entry has no similarity line
	Similarity int

	hasHunks       bool
	synthesizeID   bool
	fileHeaders    bool
	similarityLine string
}

// Operation describes the entry, e.g. "modify", "create" or "rename+modify"
func (e *FileEntry) Operation() string {
	switch {
	case e.Create:
		return "create"
	case e.Delete:
		return "delete"
	case e.Rename && e.hasHunks:
		return "rename+modify"
	case e.Rename:
		return "rename"
	}
	return "modify"
}

// Path returns the path most useful in diagnostics
func (e *FileEntry) Path() string {
	if e.Delete {
		return e.OldPath
	}
	return e.NewPath
}

// headerBlock collects the header lines of one file entry until its first hunk
type headerBlock struct {
	diff       patchline.Line
	mode       *patchline.Line
	index      *patchline.Line
	similarity *patchline.Line
	binary     *patchline.Line
	renameFrom *patchline.Line
	renameTo   *patchline.Line
	start      *patchline.Line
	end        *patchline.Line
	extended   []string

	previous patchline.Kind
}

func newHeaderBlock(diff patchline.Line) *headerBlock {
	return &headerBlock{diff: diff, previous: patchline.DiffHeader}
}

// add records one header line of the entry
func (b *headerBlock) add(l patchline.Line) error {
	slot := b.slot(l.Kind)
	if slot == nil {
		return NewInvalidHeaderError(fmt.Sprintf("unexpected %s line in header block", l.Kind))
	}
	if *slot != nil {
		return NewInvalidHeaderError(fmt.Sprintf("duplicate %s header found", l.Kind))
	}
	if l.Kind == patchline.ModeLine && b.previous != patchline.DiffHeader {
		return NewUnsupportedError("mode line not immediately following its diff line")
	}
	line := l
	*slot = &line
	b.previous = l.Kind
	return nil
}

// addOther records a line no header rule recognized.
// Blank lines are dropped; git extended headers pass through.
func (b *headerBlock) addOther(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if !extendedHeaderRegex.MatchString(text) {
		return NewInvalidHeaderError(fmt.Sprintf("unrecognized header line %q", text))
	}
	b.extended = append(b.extended, text+"\n")
	b.previous = patchline.Content
	return nil
}

func (b *headerBlock) slot(k patchline.Kind) **patchline.Line {
	switch k {
	case patchline.ModeLine:
		return &b.mode
	case patchline.IndexLine:
		return &b.index
	case patchline.SimilarityLine:
		return &b.similarity
	case patchline.BinaryLine:
		return &b.binary
	case patchline.RenameFrom:
		return &b.renameFrom
	case patchline.RenameTo:
		return &b.renameTo
	case patchline.FileStart:
		return &b.start
	case patchline.FileEnd:
		return &b.end
	}
	return nil
}

func stripPrefix(path, prefix string) string {
	if path == patchline.DevNull {
		return path
	}
	return strings.TrimPrefix(path, prefix)
}

// reconcile decides paths and operation of the entry from whatever headers are present
func (b *headerBlock) reconcile(hasHunks bool) (*FileEntry, error) {
	e := &FileEntry{Similarity: -1, hasHunks: hasHunks}

	if b.binary != nil {
		if b.start != nil || b.end != nil {
			return nil, NewUnsupportedError("binary marker combined with file start/end headers")
		}
		if b.renameFrom != nil || b.renameTo != nil {
			return nil, NewUnsupportedError("renaming binary files")
		}
		e.Binary = true
	}
	if b.similarity != nil {
		e.Similarity = b.similarity.Similarity
	}

	diffOld := stripPrefix(b.diff.OldPath, "a/")
	diffNew := stripPrefix(b.diff.NewPath, "b/")
	if diffOld == patchline.DevNull && diffNew == patchline.DevNull {
		return nil, NewInvalidHeaderError("diff line cannot name /dev/null on both sides")
	}
	create := diffOld == patchline.DevNull
	del := diffNew == patchline.DevNull
	if create {
		diffOld = diffNew
	}
	if del {
		diffNew = diffOld
	}

	// Explicit file headers (or the binary marker's paths) decide over hints.
	var src, dst string
	hasSrc, hasDst := false, false
	switch {
	case b.binary != nil:
		src, dst = stripPrefix(b.binary.OldPath, "a/"), stripPrefix(b.binary.NewPath, "b/")
		hasSrc, hasDst = true, true
	default:
		if b.start != nil {
			src, hasSrc = stripPrefix(b.start.OldPath, "a/"), true
		}
		if b.end != nil {
			dst, hasDst = stripPrefix(b.end.NewPath, "b/"), true
		}
	}
	if hasSrc && hasDst && src == patchline.DevNull && dst == patchline.DevNull {
		return nil, NewInvalidHeaderError("file headers cannot both be /dev/null")
	}

	if b.mode != nil {
		create = create || b.mode.NewFile
		del = del || !b.mode.NewFile
	}
	if hasSrc {
		create = src == patchline.DevNull
	}
	if hasDst {
		del = dst == patchline.DevNull
	}
	if create && del {
		return nil, NewInvalidHeaderError("entry cannot both create and delete a file")
	}
	if b.mode != nil && !create && !del {
		return nil, NewUnsupportedError("mode line on a file that is neither created nor deleted")
	}
	e.Create, e.Delete = create, del

	switch {
	case create:
		if b.renameFrom != nil || b.renameTo != nil {
			return nil, NewUnsupportedError("rename combined with file creation")
		}
		p := diffNew
		if hasDst {
			p = dst
		}
		e.OldPath, e.NewPath = p, p
	case del:
		if b.renameFrom != nil || b.renameTo != nil {
			return nil, NewUnsupportedError("rename combined with file deletion")
		}
		p := diffOld
		if hasSrc {
			p = src
		}
		e.OldPath, e.NewPath = p, p
	case b.renameFrom != nil || b.renameTo != nil:
		from, to := diffOld, diffNew
		if b.renameFrom != nil {
			from = b.renameFrom.OldPath
		}
		if b.renameTo != nil {
			to = b.renameTo.NewPath
		}
		e.OldPath, e.NewPath, e.Rename = from, to, true
	case diffOld != diffNew:
		e.OldPath, e.NewPath, e.Rename = diffOld, diffNew, true
	case hasSrc && hasDst && src != dst:
		e.OldPath, e.NewPath, e.Rename = src, dst, true
	default:
		p := diffOld
		if hasSrc {
			p = src
		} else if hasDst {
			p = dst
		}
		e.OldPath, e.NewPath = p, p
	}
	if e.Rename && e.OldPath == e.NewPath {
		return nil, NewInvalidHeaderError(fmt.Sprintf("rename source and destination are both %s", e.OldPath))
	}

	if create || del {
		e.Mode = DefaultMode
		if b.mode != nil {
			e.Mode = b.mode.Mode
		}
		if b.index != nil && b.index.Mode != "" {
			if b.mode != nil && b.index.Mode != b.mode.Mode {
				return nil, NewInvalidHeaderError(fmt.Sprintf(
					"mode line file mode %s does not match index line file mode %s", b.mode.Mode, b.index.Mode))
			}
			e.Mode = b.index.Mode
		}
	}

	if b.index == nil {
		switch {
		case del:
			e.synthesizeID = true
		case e.Binary:
			return nil, NewUnsupportedError("binary file entry without index line")
		case e.Rename && b.similarity == nil && hasHunks:
			return nil, NewUnsupportedError("missing index line for a rename with content changes")
		}
	}
	switch {
	case b.similarity != nil:
		e.similarityLine = b.similarity.Text + "\n"
	case e.Rename && b.index == nil:
		e.Similarity = 100
		e.similarityLine = "similarity index 100%\n"
	}

	pureRename := e.Rename && !hasHunks && e.Similarity == 100
	// git rejects a file start/end pair that no hunk follows
	e.fileHeaders = !e.Binary && !pureRename && hasHunks
	return e, nil
}

// render emits the reconciled header block in canonical order.
// ref is the loaded source file and is only needed to synthesize a deletion's index.
func (b *headerBlock) render(e *FileEntry, ref *reference.File) ([]string, error) {
	oldSide := "a/" + e.OldPath
	newSide := "b/" + e.NewPath
	if e.Create {
		oldSide = patchline.DevNull
	}
	if e.Delete {
		newSide = patchline.DevNull
	}

	lines := []string{fmt.Sprintf("diff --git a/%s b/%s\n", e.OldPath, e.NewPath)}
	switch {
	case e.Create:
		lines = append(lines, fmt.Sprintf("new file mode %s\n", e.Mode))
	case e.Delete:
		lines = append(lines, fmt.Sprintf("deleted file mode %s\n", e.Mode))
	}
	lines = append(lines, b.extended...)
	if e.similarityLine != "" {
		lines = append(lines, e.similarityLine)
	}
	if e.Rename {
		lines = append(lines,
			fmt.Sprintf("rename from %s\n", e.OldPath),
			fmt.Sprintf("rename to %s\n", e.NewPath))
	}
	switch {
	case b.index != nil:
		lines = append(lines, b.index.Text+"\n")
	case e.synthesizeID:
		if ref == nil {
			return nil, NewUnsupportedError("index line for a deleted file that could not be read")
		}
		lines = append(lines, fmt.Sprintf("index %s..%s\n", ref.ShortBlobID(), zeroID))
	}
	if e.Binary {
		lines = append(lines, fmt.Sprintf("Binary files %s and %s differ\n", oldSide, newSide))
	}
	if e.fileHeaders {
		lines = append(lines,
			fmt.Sprintf("--- %s\n", oldSide),
			fmt.Sprintf("+++ %s\n", newSide))
	}
	return lines, nil
}
