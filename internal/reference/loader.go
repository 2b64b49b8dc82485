package reference

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/go-git/go-git/v5/plumbing"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// ErrIsDirectory is returned when a path expected to be a file is a directory
var ErrIsDirectory = errors.New("is a directory")

// DefaultEncodings is the decoding cascade tried before the lossy fallback
var DefaultEncodings = []string{"utf-8", "windows-1252", "iso-8859-1"}

// LossyEncoding names the fallback used when no configured encoding fits
const LossyEncoding = "utf-8 (lossy)"

// File is the content of a reference file split into lines
type File struct {
	Path string
	// Lines have their terminators stripped
	Lines []string
	// TrailingNewline reports whether the last line was terminated
	TrailingNewline bool
	// Encoding is the name of the encoding that decoded the content
	Encoding string
	// BlobID is the git object id of the raw bytes
	BlobID plumbing.Hash
}

// ShortBlobID returns the abbreviated object id used in index lines
func (f *File) ShortBlobID() string {
	return f.BlobID.String()[:7]
}

// Loader reads reference files trying a sequence of text encodings
type Loader struct {
	encodings []string
}

// NewLoader creates a loader for the given encodings, or DefaultEncodings when none are given
func NewLoader(encodings ...string) *Loader {
	if len(encodings) == 0 {
		encodings = DefaultEncodings
	}
	return &Loader{encodings: encodings}
}

// ValidateEncodings checks that every name is known to the IANA index
func ValidateEncodings(names []string) error {
	for _, name := range names {
		if _, err := lookup(name); err != nil {
			return err
		}
	}
	return nil
}

// Load reads path and splits it into lines
func (l *Loader) Load(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: %w", path, ErrIsDirectory)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	text, enc := l.decode(raw)
	lines, trailing := splitReference(text)
	return &File{
		Path:            path,
		Lines:           lines,
		TrailingNewline: trailing,
		Encoding:        enc,
		BlobID:          plumbing.ComputeHash(plumbing.BlobObject, raw),
	}, nil
}

func (l *Loader) decode(raw []byte) (string, string) {
	for _, name := range l.encodings {
		enc, err := lookup(name)
		if err != nil {
			continue
		}
		if text, ok := decodeWith(enc, raw); ok {
			return text, name
		}
	}
	return strings.ToValidUTF8(string(raw), "�"), LossyEncoding
}

func lookup(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return enc, nil
}

func decodeWith(enc encoding.Encoding, raw []byte) (string, bool) {
	if enc == unicode.UTF8 {
		if !utf8.Valid(raw) {
			return "", false
		}
		return string(raw), true
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	// Single-byte decoders map undefined bytes to U+FFFD instead of failing.
	if strings.ContainsRune(string(out), utf8.RuneError) {
		return "", false
	}
	return string(out), true
}

func splitReference(text string) ([]string, bool) {
	if text == "" {
		return nil, false
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	trailing := strings.HasSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n"), trailing
}
