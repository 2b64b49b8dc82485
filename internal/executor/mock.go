package executor

import (
	"context"
	"fmt"
	"io"
)

// MockCommandExecutor answers commands from a table, for tests
type MockCommandExecutor struct {
	// Commands maps "name [args]" keys to canned responses
	Commands map[string]MockResponse
	// ExecutedCommands records every call in order
	ExecutedCommands []ExecutedCommand
}

// MockResponse is the canned result of one command
type MockResponse struct {
	Output []byte
	Error  error
}

// ExecutedCommand is one recorded call
type ExecutedCommand struct {
	Name  string
	Args  []string
	Stdin []byte
	Dir   string
}

// NewMockCommandExecutor creates an executor with no known commands
func NewMockCommandExecutor() *MockCommandExecutor {
	return &MockCommandExecutor{
		Commands:         make(map[string]MockResponse),
		ExecutedCommands: []ExecutedCommand{},
	}
}

// Key returns the Commands key for a call
func Key(name string, args ...string) string {
	return fmt.Sprintf("%s %v", name, args)
}

// Execute implements CommandExecutor.Execute
func (m *MockCommandExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	return m.respond(ctx, ExecutedCommand{Name: name, Args: args})
}

// ExecuteWithStdin implements CommandExecutor.ExecuteWithStdin
func (m *MockCommandExecutor) ExecuteWithStdin(ctx context.Context, dir string, name string, stdin io.Reader, args ...string) ([]byte, error) {
	var data []byte
	if stdin != nil {
		data, _ = io.ReadAll(stdin)
	}
	return m.respond(ctx, ExecutedCommand{Name: name, Args: args, Stdin: data, Dir: dir})
}

func (m *MockCommandExecutor) respond(ctx context.Context, call ExecutedCommand) ([]byte, error) {
	m.ExecutedCommands = append(m.ExecutedCommands, call)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := Key(call.Name, call.Args...)
	if response, ok := m.Commands[key]; ok {
		return response.Output, response.Error
	}
	return nil, fmt.Errorf("unexpected command: %s", key)
}
