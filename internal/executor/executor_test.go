package executor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/syou6162/git-patch-fixer/internal/logger"
)

func TestMockCommandExecutor_Execute(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*MockCommandExecutor)
		command    string
		args       []string
		wantOutput []byte
		wantErrMsg string
	}{
		{
			name: "known command",
			setup: func(m *MockCommandExecutor) {
				m.Commands[Key("git", "--version")] = MockResponse{Output: []byte("git version 2.39.0\n")}
			},
			command:    "git",
			args:       []string{"--version"},
			wantOutput: []byte("git version 2.39.0\n"),
		},
		{
			name: "canned error",
			setup: func(m *MockCommandExecutor) {
				m.Commands[Key("git")] = MockResponse{Error: errors.New("command not found")}
			},
			command:    "git",
			wantErrMsg: "command not found",
		},
		{
			name:       "unexpected command",
			setup:      func(m *MockCommandExecutor) {},
			command:    "unexpected",
			args:       []string{"arg1", "arg2"},
			wantErrMsg: "unexpected command: unexpected [arg1 arg2]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockCommandExecutor()
			tt.setup(mock)

			output, err := mock.Execute(context.Background(), tt.command, tt.args...)

			if tt.wantErrMsg != "" {
				if err == nil || err.Error() != tt.wantErrMsg {
					t.Fatalf("Execute() error = %v, want %q", err, tt.wantErrMsg)
				}
			} else if err != nil {
				t.Fatalf("Execute() unexpected error: %v", err)
			}
			if !bytes.Equal(output, tt.wantOutput) {
				t.Errorf("Execute() output = %q, want %q", output, tt.wantOutput)
			}
			if len(mock.ExecutedCommands) != 1 || mock.ExecutedCommands[0].Name != tt.command {
				t.Errorf("ExecutedCommands = %+v, want one call to %s", mock.ExecutedCommands, tt.command)
			}
		})
	}
}

func TestMockCommandExecutor_ExecuteWithStdin(t *testing.T) {
	mock := NewMockCommandExecutor()
	mock.Commands[Key("git", "apply", "--check", "-")] = MockResponse{}

	_, err := mock.ExecuteWithStdin(context.Background(), "/repo", "git", strings.NewReader("patch"), "apply", "--check", "-")
	if err != nil {
		t.Fatalf("ExecuteWithStdin() error = %v", err)
	}

	call := mock.ExecutedCommands[0]
	if call.Dir != "/repo" {
		t.Errorf("Dir = %q, want /repo", call.Dir)
	}
	if string(call.Stdin) != "patch" {
		t.Errorf("Stdin = %q, want %q", call.Stdin, "patch")
	}

	if _, err := mock.ExecuteWithStdin(context.Background(), "", "cat", nil); err == nil {
		t.Error("expected error for unknown command")
	}
	if mock.ExecutedCommands[1].Stdin != nil {
		t.Errorf("nil stdin recorded as %q", mock.ExecutedCommands[1].Stdin)
	}
}

func TestMockCommandExecutor_CancelledContext(t *testing.T) {
	mock := NewMockCommandExecutor()
	mock.Commands[Key("git", "--version")] = MockResponse{Output: []byte("ok")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := mock.Execute(ctx, "git", "--version"); !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
}

func TestRealCommandExecutor(t *testing.T) {
	var logs bytes.Buffer
	log := logger.New(logger.DebugLevel)
	log.SetOutput(&logs)
	r := NewRealCommandExecutor(log)
	ctx := context.Background()

	t.Run("stdout is returned", func(t *testing.T) {
		if _, err := exec.LookPath("echo"); err != nil {
			t.Skip("echo not found in PATH")
		}
		out, err := r.Execute(ctx, "echo", "hello")
		if err != nil || string(out) != "hello\n" {
			t.Errorf("Execute() = %q, %v", out, err)
		}
	})

	t.Run("stdin and directory", func(t *testing.T) {
		if _, err := exec.LookPath("cat"); err != nil {
			t.Skip("cat not found in PATH")
		}
		out, err := r.ExecuteWithStdin(ctx, t.TempDir(), "cat", strings.NewReader("piped"))
		if err != nil || string(out) != "piped" {
			t.Errorf("ExecuteWithStdin() = %q, %v", out, err)
		}
	})

	t.Run("missing command", func(t *testing.T) {
		if _, err := r.Execute(ctx, "definitely-does-not-exist-12345"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("stderr is kept on failure", func(t *testing.T) {
		if _, err := exec.LookPath("ls"); err != nil {
			t.Skip("ls not found in PATH")
		}
		_, err := r.Execute(ctx, "ls", "/definitely/does/not/exist/12345")
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			t.Fatalf("error = %v, want *exec.ExitError", err)
		}
		if len(exitErr.Stderr) == 0 {
			t.Error("ExitError.Stderr is empty")
		}
		if !strings.Contains(logs.String(), "command failed: ls") {
			t.Errorf("log output = %q", logs.String())
		}
	})
}
