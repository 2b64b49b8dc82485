package executor

import (
	"context"
	"io"
)

// CommandExecutor runs external commands. The patch apply check is the only
// caller that needs one; everything else in the fixer works in process.
type CommandExecutor interface {
	// Execute runs a command and returns its standard output
	Execute(ctx context.Context, name string, args ...string) ([]byte, error)

	// ExecuteWithStdin runs a command fed from stdin in the given directory.
	// An empty dir means the current working directory.
	ExecuteWithStdin(ctx context.Context, dir string, name string, stdin io.Reader, args ...string) ([]byte, error)
}
