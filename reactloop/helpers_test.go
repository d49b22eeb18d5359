package reactloop

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/martinemde/reagent/llmclient"
)

// fakeEnv is an in-memory ExecutionEnvironment. Commands are answered by
// the exec callback; everything run is recorded for assertions.
type fakeEnv struct {
	mu       sync.Mutex
	files    map[string]string
	exec     func(command string) *ExecResult
	commands []string
}

func newFakeEnv() *fakeEnv {
	return &fakeEnv{files: map[string]string{}}
}

func (e *fakeEnv) ReadFile(path string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	content, ok := e.files[path]
	if !ok {
		return "", fmt.Errorf("read_file: %s does not exist", path)
	}
	return content, nil
}

func (e *fakeEnv) WriteFile(path string, content string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.files[path] = content
	return nil
}

func (e *fakeEnv) FileExists(path string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.files[path]
	return ok
}

func (e *fakeEnv) ExecCommand(ctx context.Context, command string, timeoutMs int) (*ExecResult, error) {
	e.mu.Lock()
	e.commands = append(e.commands, command)
	exec := e.exec
	e.mu.Unlock()
	if exec != nil {
		return exec(command), nil
	}
	return &ExecResult{}, nil
}

func (e *fakeEnv) Grep(ctx context.Context, pattern string, path string, options GrepOptions) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var sb strings.Builder
	for name, content := range e.files {
		for i, line := range strings.Split(content, "\n") {
			if strings.Contains(line, pattern) {
				fmt.Fprintf(&sb, "%s:%d:%s\n", name, i+1, line)
			}
		}
	}
	return sb.String(), nil
}

func (e *fakeEnv) Glob(pattern string, path string) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var matches []string
	for name := range e.files {
		ok, err := filepath.Match(pattern, filepath.Base(name))
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, name)
		}
	}
	sort.Strings(matches)
	return matches, nil
}

func (e *fakeEnv) WorkingDirectory() string { return "/repo" }

func (e *fakeEnv) ranCommand(prefix string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range e.commands {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

// scriptedClient replays canned completions in order.
type scriptedClient struct {
	mu        sync.Mutex
	responses []string
	calls     int
}

func (c *scriptedClient) Generate(ctx context.Context, messages []llmclient.Message) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls >= len(c.responses) {
		return "", fmt.Errorf("script exhausted after %d calls", c.calls)
	}
	response := c.responses[c.calls]
	c.calls++
	return response, nil
}

// callBlock renders a protocol-framed function call for test scripts.
func callBlock(rationale, name string, args ...string) string {
	var sb strings.Builder
	sb.WriteString(rationale)
	sb.WriteString("\n")
	sb.WriteString(BeginCallMarker)
	sb.WriteString("\n")
	sb.WriteString(name)
	for i := 0; i+1 < len(args); i += 2 {
		sb.WriteString("\n" + ArgMarker + "\n")
		sb.WriteString(args[i])
		sb.WriteString("\n" + ValueMarker + "\n")
		sb.WriteString(args[i+1])
	}
	sb.WriteString("\n")
	sb.WriteString(EndCallMarker)
	return sb.String()
}
