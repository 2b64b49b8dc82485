package fixer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/syou6162/git-patch-fixer/internal/logger"
	"github.com/syou6162/git-patch-fixer/internal/patchline"
	"github.com/syou6162/git-patch-fixer/internal/reference"
)

// HookContext is what a hunk hook can see about the hunk being resolved
type HookContext struct {
	// File is the entry's path without prefix
	File string
	// Reference holds the lines of the entry's source file
	Reference []string
	Offset    int
	LastHunk  int
	// Header is the corrected hunk header; empty before resolution
	Header string
}

// HunkHook inspects or rewrites a hunk's body lines
type HunkHook func(lines []string, hc HookContext) []string

// Options configures a Fixer
type Options struct {
	// Fuzzy enables approximate matching when exact matching finds nothing
	Fuzzy          bool
	FuzzyThreshold float64
	// AddNewline makes every repaired file end in a newline
	AddNewline bool
	// Strict returns location errors without attaching the owning file
	Strict bool
	// Encodings overrides the reference decoding cascade
	Encodings []string

	PreHunk  HunkHook
	PostHunk HunkHook
}

// Fixer repairs patches against one target
type Fixer struct {
	target  *Target
	opts    Options
	loader  *reference.Loader
	locator *Locator
	logger  *logger.Logger
}

// New creates a Fixer for target, which may be a directory or a single file
func New(target string, opts Options, log *logger.Logger) (*Fixer, error) {
	t, err := NewTarget(target)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Fixer{
		target:  t,
		opts:    opts,
		loader:  reference.NewLoader(opts.Encodings...),
		locator: NewLocator(opts.Fuzzy, opts.FuzzyThreshold),
		logger:  log,
	}, nil
}

// Target returns the resolved target
func (f *Fixer) Target() *Target {
	return f.target
}

// FixFile reads a patch from path and repairs it
func (f *Fixer) FixFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", NewFileNotFoundError(path, err)
		}
		return "", NewIOError("reading patch", err)
	}
	return f.FixPatch(string(data))
}

// FixPatch repairs patch text. Each call is independent; a Fixer may be reused.
func (f *Fixer) FixPatch(patch string) (string, error) {
	if strings.TrimSpace(patch) == "" {
		return "", NewFixerError(ErrorTypeEmptyPatch, "patch is empty", nil)
	}
	lines := patchline.SplitLines(patch)
	if !hasDiffHeader(lines) {
		return "", NewFixerError(ErrorTypeDiffNotFound, "no diff --git line found in patch", nil)
	}

	r := &run{fixer: f, lines: lines}
	for i := range lines {
		if err := r.step(i); err != nil {
			return "", err
		}
	}
	if err := r.finish(); err != nil {
		return "", err
	}
	return strings.Join(r.out, ""), nil
}

func hasDiffHeader(lines []string) bool {
	for _, line := range lines {
		if strings.HasPrefix(line, "diff --git ") && patchline.Classify(line).Kind == patchline.DiffHeader {
			return true
		}
	}
	return false
}

// entryState is the per-entry state, reset on every diff line
type entryState struct {
	header  *headerBlock
	info    *FileEntry
	emitted bool
	ref     *reference.File
	pos     Position
	pending *Hunk
	hunks   int
	// lastTag is the tag of the last body line emitted for this entry
	lastTag lineTag
}

func (e *entryState) refLines() []string {
	if e.ref == nil {
		return nil
	}
	return e.ref.Lines
}

func (e *entryState) path() string {
	if e.info != nil {
		return e.info.Path()
	}
	return stripPrefix(e.header.diff.NewPath, "b/")
}

// run holds the state of one FixPatch call
type run struct {
	fixer *Fixer
	lines []string
	out   []string
	entry *entryState
	last  *entryState
}

func (r *run) step(i int) error {
	raw := r.lines[i]
	l := patchline.Classify(raw)

	if r.entry != nil && r.entry.pending != nil {
		switch l.Kind {
		case patchline.FileStart:
			// "--- x" inside a body is the deletion of "-- x" unless a "+++" follows
			if i+1 < len(r.lines) && patchline.Classify(r.lines[i+1]).Kind == patchline.FileEnd {
				return r.missingDiff(i)
			}
			l.Kind = patchline.Content
		case patchline.FileEnd:
			l.Kind = patchline.Content
		case patchline.ModeLine, patchline.IndexLine, patchline.SimilarityLine,
			patchline.BinaryLine, patchline.RenameFrom, patchline.RenameTo:
			return r.missingDiff(i)
		}
	}

	norm, err := patchline.Normalize(raw, l.Kind)
	if err != nil {
		return NewMalformedLineError(i+1, err)
	}

	switch {
	case l.Kind == patchline.DiffHeader:
		if err := r.closeEntry(); err != nil {
			return err
		}
		r.entry = &entryState{header: newHeaderBlock(l)}
		return nil
	case l.Kind.IsHeader():
		if r.entry == nil {
			return r.missingDiff(i)
		}
		return r.entry.header.add(l)
	case l.Kind == patchline.HunkHeader:
		if r.entry == nil {
			return r.missingDiff(i)
		}
		return r.startHunk(l)
	case l.Kind == patchline.NoNewline:
		if r.entry == nil || r.entry.pending == nil {
			return NewInvalidHeaderError(fmt.Sprintf("line %d: no-newline marker outside of a hunk", i+1))
		}
		r.entry.pending.Lines = append(r.entry.pending.Lines, norm)
		return nil
	}

	switch {
	case r.entry == nil:
		// preamble before the first diff line, e.g. mail headers
		r.out = append(r.out, norm)
	case r.entry.pending != nil:
		r.entry.pending.Lines = append(r.entry.pending.Lines, norm)
	default:
		return r.entry.header.addOther(l.Text)
	}
	return nil
}

func (r *run) missingDiff(i int) error {
	return NewUnsupportedError("missing diff line").
		WithContext("line", i+1)
}

func (r *run) startHunk(l patchline.Line) error {
	e := r.entry
	if e.header.binary != nil {
		return NewInvalidHeaderError("binary file entry cannot contain hunks")
	}
	if e.info == nil {
		if err := r.prepareEntry(true); err != nil {
			return err
		}
	}
	if e.pending != nil {
		if err := r.resolvePending(false); err != nil {
			return err
		}
	}
	e.pending = &Hunk{Hint: l.Range, Section: l.Section}
	return nil
}

// prepareEntry reconciles the entry's header block and loads its reference.
// Nothing is written until emitHeader.
func (r *run) prepareEntry(hasHunks bool) error {
	e := r.entry
	info, err := e.header.reconcile(hasHunks)
	if err != nil {
		return err
	}
	e.info = info

	t := r.fixer.target
	if info.Create {
		return t.checkCreatable(info.NewPath)
	}
	ref, err := t.load(r.fixer.loader, info.OldPath)
	if err != nil {
		return err
	}
	e.ref = ref
	r.fixer.logger.Debug("loaded %s (%d lines, %s)", info.OldPath, len(ref.Lines), ref.Encoding)
	if info.Rename {
		return t.checkRenameDestination(info.NewPath)
	}
	return nil
}

// emitHeader writes the reconciled header block. It runs once the first hunk
// of the entry has a body, or when the entry closes without any.
func (r *run) emitHeader() error {
	e := r.entry
	lines, err := e.header.render(e.info, e.ref)
	if err != nil {
		return err
	}
	r.fixer.logger.Debug("header for %s: %s", e.info.Path(), e.info.Operation())
	r.out = append(r.out, lines...)
	e.emitted = true
	return nil
}

// resolvePending locates the pending hunk and writes it. last is set when the
// hunk is the final one of its entry, where an empty body is silently dropped.
func (r *run) resolvePending(last bool) error {
	e := r.entry
	h := e.pending
	e.pending = nil
	opts := r.fixer.opts

	if opts.AddNewline {
		h.Lines = addFinalNewline(h.Lines)
	}
	if opts.PreHunk != nil {
		h.Lines = opts.PreHunk(h.Lines, r.hookContext(""))
	}

	res, err := r.fixer.locator.Locate(h, e.refLines(), &e.pos)
	if errors.Is(err, ErrEmptyHunk) {
		if last {
			r.fixer.logger.Debug("dropping empty trailing hunk in %s", e.path())
			return nil
		}
		return NewInvalidHeaderError("empty hunk followed by another hunk").
			WithContext("file", e.path())
	}
	if err != nil {
		return r.locationError(err)
	}

	header := res.Header()
	if res.Fuzzy {
		r.fixer.logger.Debug("%s: fuzzy match at line %d (score %.2f)", e.path(), res.OldStart, res.Score)
	} else {
		r.fixer.logger.Debug("%s: hunk resolved at line %d", e.path(), res.OldStart)
	}

	lines := h.Lines
	if opts.PostHunk != nil {
		lines = opts.PostHunk(lines, r.hookContext(header))
	}
	if !e.emitted {
		if err := r.emitHeader(); err != nil {
			return err
		}
	}
	r.out = append(r.out, header)
	r.out = append(r.out, lines...)
	e.hunks++
	if len(lines) > 0 {
		e.lastTag = tagOf(lines[len(lines)-1])
	}
	return nil
}

func (r *run) hookContext(header string) HookContext {
	e := r.entry
	return HookContext{
		File:      e.path(),
		Reference: e.refLines(),
		Offset:    e.pos.Offset,
		LastHunk:  e.pos.LastHunk,
		Header:    header,
	}
}

// locationError attaches the owning file to hunk errors unless running strict
func (r *run) locationError(err error) error {
	var fe *FixerError
	if !errors.As(err, &fe) {
		return err
	}
	if closest, ok := fe.Context["closest"].(string); ok {
		r.fixer.logger.Debug("closest match at line %v:\n%s", fe.Context["closest_line"], closest)
	}
	if r.fixer.opts.Strict {
		return err
	}
	return fe.WithContext("file", r.entry.path())
}

// closeEntry flushes the pending hunk and emits headers of an entry without hunks
func (r *run) closeEntry() error {
	e := r.entry
	if e == nil {
		return nil
	}
	if e.pending != nil {
		if err := r.resolvePending(true); err != nil {
			return err
		}
	}
	if !e.emitted {
		// every hunk was dropped, so the entry has none
		if err := r.prepareEntry(false); err != nil {
			return err
		}
		if err := r.emitHeader(); err != nil {
			return err
		}
	}
	r.last = e
	r.entry = nil
	return nil
}

func (r *run) finish() error {
	if err := r.closeEntry(); err != nil {
		return err
	}
	if !r.fixer.opts.AddNewline && r.endsWithoutNewline() {
		n := len(r.out) - 1
		r.out[n] = strings.TrimSuffix(r.out[n], "\n")
	}
	return nil
}

// endsWithoutNewline reports whether the last emitted line is the reference's
// final, unterminated line, so the patch should not terminate it either.
func (r *run) endsWithoutNewline() bool {
	e := r.last
	if e == nil || e.ref == nil || e.hunks == 0 || len(r.out) == 0 {
		return false
	}
	if len(e.ref.Lines) == 0 || e.ref.TrailingNewline {
		return false
	}
	if e.pos.LastHunk != len(e.ref.Lines) {
		return false
	}
	if e.lastTag != tagContext && e.lastTag != tagDeletion {
		return false
	}
	return len(r.out[len(r.out)-1]) > 1
}

// addFinalNewline drops no-newline markers so every file ends in a newline.
// A marker after a context line becomes a deletion and re-addition of that line.
func addFinalNewline(lines []string) []string {
	out := make([]string, 0, len(lines)+1)
	for i, line := range lines {
		if tagOf(line) != tagMarker || i == 0 {
			out = append(out, line)
			continue
		}
		prev := lines[i-1]
		switch tagOf(prev) {
		case tagAddition:
			// drop
		case tagContext:
			text := prev
			if text != "\n" {
				text = prev[1:]
			}
			out[len(out)-1] = "-" + text
			out = append(out, line, "+"+text)
		default:
			out = append(out, line)
		}
	}
	return out
}
