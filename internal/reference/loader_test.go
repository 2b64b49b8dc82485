package reference

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

func TestLoader_Load(t *testing.T) {
	tests := []struct {
		name         string
		content      []byte
		wantLines    []string
		wantTrailing bool
		wantEncoding string
	}{
		{
			name:         "utf-8 with trailing newline",
			content:      []byte("line 1\nline 2\nline 3\n"),
			wantLines:    []string{"line 1", "line 2", "line 3"},
			wantTrailing: true,
			wantEncoding: "utf-8",
		},
		{
			name:         "no trailing newline",
			content:      []byte("first\nlast"),
			wantLines:    []string{"first", "last"},
			wantTrailing: false,
			wantEncoding: "utf-8",
		},
		{
			name:         "crlf terminators stripped",
			content:      []byte("a\r\nb\r\n"),
			wantLines:    []string{"a", "b"},
			wantTrailing: true,
			wantEncoding: "utf-8",
		},
		{
			name:         "blank lines kept",
			content:      []byte("a\n\nb\n"),
			wantLines:    []string{"a", "", "b"},
			wantTrailing: true,
			wantEncoding: "utf-8",
		},
		{
			name:         "latin-1 bytes fall back to windows-1252",
			content:      []byte("caf\xe9\n"),
			wantLines:    []string{"café"},
			wantTrailing: true,
			wantEncoding: "windows-1252",
		},
		{
			name:         "empty file",
			content:      []byte{},
			wantLines:    nil,
			wantTrailing: false,
			wantEncoding: "utf-8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "ref.txt", tt.content)

			f, err := NewLoader().Load(path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLines, f.Lines)
			assert.Equal(t, tt.wantTrailing, f.TrailingNewline)
			assert.Equal(t, tt.wantEncoding, f.Encoding)
			assert.Equal(t, path, f.Path)
		})
	}
}

func TestLoader_LossyFallback(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ref.txt", []byte("caf\xe9\n"))

	f, err := NewLoader("utf-8").Load(path)
	require.NoError(t, err)
	assert.Equal(t, LossyEncoding, f.Encoding)
	assert.Equal(t, []string{"caf�"}, f.Lines)
}

func TestLoader_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewLoader().Load(filepath.Join(dir, "missing.txt"))
	assert.True(t, errors.Is(err, os.ErrNotExist), "got %v", err)

	_, err = NewLoader().Load(dir)
	assert.True(t, errors.Is(err, ErrIsDirectory), "got %v", err)
}

func TestFile_BlobID(t *testing.T) {
	dir := t.TempDir()

	f, err := NewLoader().Load(writeFile(t, dir, "hello.txt", []byte("hello\n")))
	require.NoError(t, err)
	assert.Equal(t, "ce013625030ba8dba906f756967f9e9ca394464a", f.BlobID.String())
	assert.Equal(t, "ce01362", f.ShortBlobID())

	empty, err := NewLoader().Load(writeFile(t, dir, "empty.txt", nil))
	require.NoError(t, err)
	assert.Equal(t, "e69de29", empty.ShortBlobID())
}

func TestValidateEncodings(t *testing.T) {
	assert.NoError(t, ValidateEncodings(DefaultEncodings))
	assert.NoError(t, ValidateEncodings([]string{"latin1", "UTF-8"}))
	assert.Error(t, ValidateEncodings([]string{"klingon"}))
}
