package validator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/syou6162/git-patch-fixer/internal/executor"
)

// Validator checks the command line and, on request, whether git accepts a repaired patch
type Validator struct {
	executor executor.CommandExecutor
}

// NewValidator creates a new Validator instance with the provided command executor.
func NewValidator(exec executor.CommandExecutor) *Validator {
	return &Validator{
		executor: exec,
	}
}

// CheckDependencies checks that git is available. Only the apply check needs it.
func (v *Validator) CheckDependencies(ctx context.Context) error {
	if _, err := v.executor.Execute(ctx, "git", "--version"); err != nil {
		return errors.New("git command not found")
	}
	return nil
}

// ValidateArgs validates the three positional arguments
func (v *Validator) ValidateArgs(target, input, output string) error {
	if target == "" {
		return errors.New("target cannot be empty")
	}
	if input == "" {
		return errors.New("input patch cannot be empty")
	}
	if output == "" {
		return errors.New("output patch cannot be empty")
	}

	info, err := os.Stat(input)
	if err != nil {
		return fmt.Errorf("input patch %s: %w", input, err)
	}
	if info.IsDir() {
		return fmt.Errorf("input patch %s is a directory", input)
	}

	if info, err := os.Stat(output); err == nil && info.IsDir() {
		return fmt.Errorf("output patch %s is a directory", output)
	}
	if _, err := os.Stat(filepath.Dir(output)); err != nil {
		return fmt.Errorf("output directory for %s: %w", output, err)
	}
	return nil
}

// CheckApplies runs "git apply --check" on patch inside dir without touching any file
func (v *Validator) CheckApplies(ctx context.Context, dir, patch string) error {
	_, err := v.executor.ExecuteWithStdin(ctx, dir, "git", strings.NewReader(patch), "apply", "--check", "-")
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
		return fmt.Errorf("git apply --check failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
	}
	return fmt.Errorf("git apply --check failed: %w", err)
}
