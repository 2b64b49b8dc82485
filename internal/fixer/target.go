package fixer

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/syou6162/git-patch-fixer/internal/reference"
)

// Target is what a patch is repaired against: a directory tree or a single file.
// Header paths resolve relative to Base; nothing changes the working directory.
type Target struct {
	// Base is the absolute directory header paths are resolved against
	Base string
	// File is the absolute path of a single-file target, empty for a directory
	File string
}

// NewTarget inspects path. A path that does not exist is a single-file target,
// which lets a patch create it.
func NewTarget(path string) (*Target, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, NewIOError("resolving target", err)
	}
	info, err := os.Stat(abs)
	switch {
	case err == nil && info.IsDir():
		return &Target{Base: abs}, nil
	case err == nil || errors.Is(err, fs.ErrNotExist):
		return &Target{Base: filepath.Dir(abs), File: abs}, nil
	default:
		return nil, NewIOError("inspecting target", err)
	}
}

// IsDir reports whether the target is a directory tree
func (t *Target) IsDir() bool {
	return t.File == ""
}

// Resolve maps a header path onto the filesystem. For a single-file target the
// result must be the target itself.
func (t *Target) Resolve(headerPath string) (string, error) {
	p := filepath.Join(t.Base, filepath.FromSlash(headerPath))
	if !t.IsDir() && p != t.File {
		return "", NewPathMismatchError(headerPath, t.File)
	}
	return p, nil
}

// load reads the reference for a header path, mapping failures onto the error taxonomy
func (t *Target) load(loader *reference.Loader, headerPath string) (*reference.File, error) {
	p, err := t.Resolve(headerPath)
	if err != nil {
		return nil, err
	}
	ref, err := loader.Load(p)
	switch {
	case err == nil:
		return ref, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, NewFileNotFoundError(headerPath, err)
	case errors.Is(err, reference.ErrIsDirectory):
		return nil, NewIsDirectoryError(headerPath)
	default:
		return nil, NewIOError("reading "+headerPath, err)
	}
}

// checkCreatable fails when a file created by the patch already exists
func (t *Target) checkCreatable(headerPath string) error {
	p, err := t.Resolve(headerPath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(p); err == nil {
		return NewFileExistsError(headerPath)
	}
	return nil
}

// checkRenameDestination fails when a rename points at a directory
func (t *Target) checkRenameDestination(headerPath string) error {
	p := filepath.Join(t.Base, filepath.FromSlash(headerPath))
	if info, err := os.Stat(p); err == nil && info.IsDir() {
		return NewIsDirectoryError(headerPath)
	}
	return nil
}
