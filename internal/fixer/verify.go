package fixer

import (
	"bytes"
	"os"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// FileSummary describes one file of a repaired patch
type FileSummary struct {
	OldName   string
	NewName   string
	Operation string
	Fragments int
	Added     int64
	Deleted   int64
	// Applied is false for entries that were parsed but not applied, such as binary files
	Applied bool
}

// Verify parses a repaired patch and applies every text file in memory against
// the target. Nothing on disk is modified.
func (f *Fixer) Verify(patch string) ([]FileSummary, error) {
	files, _, err := gitdiff.Parse(strings.NewReader(patch))
	if err != nil {
		return nil, NewFixerError(ErrorTypeVerification, "repaired patch does not parse", err)
	}

	summaries := make([]FileSummary, 0, len(files))
	for _, file := range files {
		s := summarize(file)
		if !file.IsBinary {
			if err := f.applyInMemory(file); err != nil {
				return nil, err
			}
			s.Applied = true
		}
		f.logger.Debug("verified %s (%s, %d fragments)", s.NewName, s.Operation, s.Fragments)
		summaries = append(summaries, s)
	}
	return summaries, nil
}

func (f *Fixer) applyInMemory(file *gitdiff.File) error {
	var src []byte
	if !file.IsNew {
		p, err := f.target.Resolve(file.OldName)
		if err != nil {
			return err
		}
		src, err = os.ReadFile(p)
		if err != nil {
			return NewFileNotFoundError(file.OldName, err)
		}
	}

	var dst bytes.Buffer
	if err := gitdiff.Apply(&dst, bytes.NewReader(src), file); err != nil {
		name := file.NewName
		if name == "" {
			name = file.OldName
		}
		return NewVerificationError(name, err)
	}
	return nil
}

func summarize(file *gitdiff.File) FileSummary {
	s := FileSummary{
		OldName:   file.OldName,
		NewName:   file.NewName,
		Fragments: len(file.TextFragments),
	}
	for _, frag := range file.TextFragments {
		s.Added += frag.LinesAdded
		s.Deleted += frag.LinesDeleted
	}

	switch {
	case file.IsNew:
		s.Operation = "create"
	case file.IsDelete:
		s.Operation = "delete"
	case file.IsRename && s.Fragments > 0:
		s.Operation = "rename+modify"
	case file.IsRename:
		s.Operation = "rename"
	default:
		s.Operation = "modify"
	}
	if s.NewName == "" {
		s.NewName = s.OldName
	}
	return s
}
