package testutils

import (
	"strings"
	"testing"
)

// AssertPatchContains verifies that the given patch contains all expected strings.
// It calls t.Helper() to ensure accurate stack traces and fails the test if any
// expected string is missing.
func AssertPatchContains(t *testing.T, patch string, want ...string) {
	t.Helper()
	for _, s := range want {
		if !strings.Contains(patch, s) {
			t.Fatalf("repaired patch missing %q\n\nActual patch:\n%s", s, patch)
		}
	}
}

// AssertPatchNotContains verifies that the given patch does not contain any unwanted strings.
func AssertPatchNotContains(t *testing.T, patch string, unwanted ...string) {
	t.Helper()
	for _, s := range unwanted {
		if strings.Contains(patch, s) {
			t.Fatalf("repaired patch should not contain %q\n\nActual patch:\n%s", s, patch)
		}
	}
}

// AssertHunkHeaders verifies that the patch's hunk headers are exactly want, in order
func AssertHunkHeaders(t *testing.T, patch string, want ...string) {
	t.Helper()
	var got []string
	for _, line := range strings.Split(patch, "\n") {
		if strings.HasPrefix(line, "@@") {
			got = append(got, line)
		}
	}
	if len(got) != len(want) {
		t.Fatalf("hunk headers = %q, want %q\n\nActual patch:\n%s", got, want, patch)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("hunk header %d = %q, want %q", i, got[i], want[i])
		}
	}
}
