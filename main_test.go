package main

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syou6162/git-patch-fixer/testutils"
)

const brokenPatch = `diff --git a/hello.txt b/hello.txt
@@ -10,3 +10,3 @@
 line 1
 line 2
+added line
 line 3
`

// runCLI runs the command line with an isolated HOME and returns exit code and output
func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestExecute_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no arguments", args: []string{}},
		{name: "two arguments", args: []string{".", "in.patch"}},
		{name: "four arguments", args: []string{".", "in.patch", "out.patch", "extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, stdout+stderr, "Usage:")
			assert.Contains(t, stderr, "Error: accepts 3 arg(s)")
		})
	}
}

func TestExecute_Help(t *testing.T) {
	code, stdout, _ := runCLI(t, "--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "patch-fixer [flags] <target> <input.patch> <output.patch>")
	assert.Contains(t, stdout, "--fuzzy-threshold")
}

func TestExecute_FixesPatch(t *testing.T) {
	dir := testutils.WriteTree(t, map[string]string{"hello.txt": "line 1\nline 2\nline 3\n"})
	work := t.TempDir()
	input := testutils.WriteFile(t, work, "in.patch", brokenPatch)
	output := filepath.Join(work, "out.patch")

	code, stdout, stderr := runCLI(t, "--verify", dir, input, output)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "Fixed patch written to "+output+"\n", stdout)

	got := testutils.ReadFile(t, output)
	testutils.AssertHunkHeaders(t, got, "@@ -1,3 +1,4 @@")
	testutils.AssertPatchContains(t, got, "--- a/hello.txt\n", "+++ b/hello.txt\n")
}

func TestExecute_SingleFileTarget(t *testing.T) {
	dir := testutils.WriteTree(t, map[string]string{"hello.txt": "line 1\nline 2\nline 3\n"})
	work := t.TempDir()
	input := testutils.WriteFile(t, work, "in.patch", brokenPatch)
	output := filepath.Join(work, "out.patch")

	code, _, stderr := runCLI(t, filepath.Join(dir, "hello.txt"), input, output)
	require.Equal(t, 0, code, stderr)
	testutils.AssertHunkHeaders(t, testutils.ReadFile(t, output), "@@ -1,3 +1,4 @@")
}

func TestExecute_FailureWritesNothing(t *testing.T) {
	dir := testutils.WriteTree(t, map[string]string{"hello.txt": "something else\n"})
	work := t.TempDir()
	input := testutils.WriteFile(t, work, "in.patch", brokenPatch)
	output := filepath.Join(work, "out.patch")

	code, stdout, stderr := runCLI(t, dir, input, output)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Error: could not find hunk in reference (in hello.txt)")
	assert.NotContains(t, stderr, "Usage:")

	_, err := os.Stat(output)
	assert.True(t, os.IsNotExist(err), "output must not be written on failure")
}

func TestExecute_MissingInput(t *testing.T) {
	dir := t.TempDir()
	code, _, stderr := runCLI(t, dir, filepath.Join(dir, "absent.patch"), filepath.Join(dir, "out.patch"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "absent.patch")
}

func TestExecute_ConfigFileAndEnvironment(t *testing.T) {
	dir := testutils.WriteTree(t, map[string]string{"main.go": "package main\n\nfunc foo() {\n\treturn\n}\n"})
	work := t.TempDir()
	input := testutils.WriteFile(t, work, "in.patch",
		"diff --git a/main.go b/main.go\n@@ -1,2 +1,3 @@\n func fooo() {\n+\tprintln()\n \treturn\n")
	output := filepath.Join(work, "out.patch")

	code, _, _ := runCLI(t, dir, input, output)
	require.Equal(t, 1, code, "exact matching should fail")

	cfg := testutils.WriteFile(t, work, "fixer.yaml", "fuzzy: true\n")
	code, _, stderr := runCLI(t, "--config", cfg, dir, input, output)
	require.Equal(t, 0, code, stderr)
	testutils.AssertHunkHeaders(t, testutils.ReadFile(t, output), "@@ -3,2 +3,3 @@")

	require.NoError(t, os.Remove(output))
	t.Setenv("PATCH_FIXER_FUZZY", "true")
	code, _, stderr = runCLI(t, dir, input, output)
	require.Equal(t, 0, code, stderr)
}

func TestExecute_InvalidThreshold(t *testing.T) {
	dir := t.TempDir()
	input := testutils.WriteFile(t, dir, "in.patch", brokenPatch)
	code, _, stderr := runCLI(t, "--fuzzy-threshold", "1", dir, input, filepath.Join(dir, "out.patch"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "fuzzy threshold must be in (0, 1)")
}

func TestExecute_Check(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}
	dir := testutils.WriteTree(t, map[string]string{"hello.txt": "line 1\nline 2\nline 3\n"})
	work := t.TempDir()
	input := testutils.WriteFile(t, work, "in.patch", brokenPatch)
	output := filepath.Join(work, "out.patch")

	code, stdout, stderr := runCLI(t, "--check", dir, input, output)
	require.Equal(t, 0, code, stderr)
	assert.True(t, strings.HasPrefix(stdout, "Fixed patch written to"))
}
