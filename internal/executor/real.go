package executor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"

	"github.com/syou6162/git-patch-fixer/internal/logger"
)

// RealCommandExecutor runs commands with os/exec
type RealCommandExecutor struct {
	logger *logger.Logger
}

// NewRealCommandExecutor creates an executor logging failures to log.
// A nil log falls back to the PATCH_FIXER_VERBOSE driven logger.
func NewRealCommandExecutor(log *logger.Logger) *RealCommandExecutor {
	if log == nil {
		log = logger.NewFromEnv()
	}
	return &RealCommandExecutor{logger: log}
}

// Execute implements CommandExecutor.Execute
func (r *RealCommandExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	return r.run(exec.CommandContext(ctx, name, args...))
}

// ExecuteWithStdin implements CommandExecutor.ExecuteWithStdin
func (r *RealCommandExecutor) ExecuteWithStdin(ctx context.Context, dir string, name string, stdin io.Reader, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	if dir != "" {
		cmd.Dir = dir
	}
	return r.run(cmd)
}

func (r *RealCommandExecutor) run(cmd *exec.Cmd) ([]byte, error) {
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		r.logger.Debug("command failed: %s", strings.Join(cmd.Args, " "))
		if stderr.Len() > 0 {
			r.logger.Debug("stderr: %s", stderr.String())
		}
		// Output only fills ExitError.Stderr when Stderr is unset
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitErr.Stderr = stderr.Bytes()
		}
		return nil, err
	}
	return output, nil
}
