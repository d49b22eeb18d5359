package reactloop

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// SWEToolsConfig carries repository metadata the tools report to the model.
type SWEToolsConfig struct {
	RepoName       string `json:"repo_name"`
	CommandTimeout int    `json:"command_timeout_ms"`
}

// DefaultSWEToolsConfig returns the standard tool configuration.
func DefaultSWEToolsConfig() SWEToolsConfig {
	return SWEToolsConfig{CommandTimeout: 120000}
}

// RegisterSWETools installs the software-engineering toolset on reg. All
// tools run against env; file edits pass through gate.
func RegisterSWETools(reg *Registry, env ExecutionEnvironment, gate *EditGate, cfg SWEToolsConfig) {
	timeout := cfg.CommandTimeout
	if timeout <= 0 {
		timeout = DefaultSWEToolsConfig().CommandTimeout
	}

	run := func(ctx context.Context, command string) (string, error) {
		result, err := env.ExecCommand(ctx, command, timeout)
		if err != nil {
			return "", err
		}
		if result.TimedOut {
			return "", fmt.Errorf("command timed out: %s", command)
		}
		if result.ExitCode != 0 {
			return "", fmt.Errorf("command exited with code %d:\n%s", result.ExitCode, result.Output())
		}
		return result.Output(), nil
	}

	reg.Register(FuncTool{
		ToolName:   "run_bash_cmd",
		ToolParams: []string{"command"},
		Doc:        "Run the command in a bash shell and return the output. Fails if the command exits non-zero.",
		Fn: func(ctx context.Context, args map[string]string) (string, error) {
			return run(ctx, args["command"])
		},
	})

	reg.Register(FuncTool{
		ToolName:   "show_file",
		ToolParams: []string{"file_path"},
		Doc:        "Show the content of the file with line numbers.",
		Fn: func(ctx context.Context, args map[string]string) (string, error) {
			path := args["file_path"]
			content, err := env.ReadFile(path)
			if err != nil {
				return "", fmt.Errorf("error reading file %s: %w", path, err)
			}
			lines := strings.Split(content, "\n")
			// Drop the phantom line a trailing newline produces.
			if len(lines) > 0 && lines[len(lines)-1] == "" {
				lines = lines[:len(lines)-1]
			}
			var sb strings.Builder
			for i, line := range lines {
				fmt.Fprintf(&sb, "%d | %s\n", i+1, line)
			}
			return sb.String(), nil
		},
	})

	reg.Register(FuncTool{
		ToolName:   "replace_in_file",
		ToolParams: []string{"file_path", "from_line", "to_line", "content"},
		Doc: "Replace lines in a file from from_line to to_line (inclusive, 1-indexed) with the given content. " +
			"The content can be multiline. Always show_file first to confirm the line numbers.",
		Fn: func(ctx context.Context, args map[string]string) (string, error) {
			return replaceInFile(ctx, env, gate, args)
		},
	})

	reg.Register(FuncTool{
		ToolName:   "grep",
		ToolParams: []string{"pattern"},
		Doc: "Search for a regex pattern in files. Optional arguments: file_pattern (glob such as \"*.py\", default all files), " +
			"case_sensitive (\"true\" or \"false\", default true).",
		Fn: func(ctx context.Context, args map[string]string) (string, error) {
			opts := GrepOptions{MaxResults: 100}
			if fp := args["file_pattern"]; fp != "" && fp != "*" {
				opts.GlobFilter = fp
			}
			if cs, ok := args["case_sensitive"]; ok && !parseBool(cs, true) {
				opts.CaseInsensitive = true
			}
			out, err := env.Grep(ctx, args["pattern"], "", opts)
			if err != nil {
				return "", err
			}
			if strings.TrimSpace(out) == "" {
				return "No matches found", nil
			}
			return out, nil
		},
	})

	reg.Register(FuncTool{
		ToolName:   "find_files",
		ToolParams: []string{"name_pattern"},
		Doc:        "Find files whose name matches a glob pattern (e.g. \"test_*.py\"). Returns at most 50 paths.",
		Fn: func(ctx context.Context, args map[string]string) (string, error) {
			matches, err := env.Glob(args["name_pattern"], "")
			if err != nil {
				return "", err
			}
			if len(matches) == 0 {
				return "No files found", nil
			}
			if len(matches) > 50 {
				matches = matches[:50]
			}
			return strings.Join(matches, "\n"), nil
		},
	})

	reg.Register(FuncTool{
		ToolName:   "run_test",
		ToolParams: nil,
		Doc: "Run tests with pytest. Optional arguments: test_path (file or directory), " +
			"test_name (selects tests by name with -k), verbose (\"true\" for -v).",
		Fn: func(ctx context.Context, args map[string]string) (string, error) {
			parts := []string{"pytest", "-q"}
			if parseBool(args["verbose"], false) {
				parts = append(parts, "-v")
			}
			switch {
			case args["test_path"] != "":
				parts = append(parts, args["test_path"])
			case args["test_name"] != "":
				parts = append(parts, "-k", args["test_name"])
			default:
				parts = append(parts, ".")
			}
			// Test failures are information, not tool errors.
			result, err := env.ExecCommand(ctx, strings.Join(parts, " "), timeout)
			if err != nil {
				return "", err
			}
			if result.TimedOut {
				return "", fmt.Errorf("test run timed out")
			}
			return result.Output(), nil
		},
	})

	reg.Register(FuncTool{
		ToolName:   "check_syntax",
		ToolParams: []string{"file_path"},
		Doc:        "Check Python syntax of a file. Returns \"Syntax OK\" or the compiler error.",
		Fn: func(ctx context.Context, args map[string]string) (string, error) {
			path := args["file_path"]
			result, err := env.ExecCommand(ctx, fmt.Sprintf("python3 -m py_compile '%s' 2>&1", path), timeout)
			if err != nil {
				return "", err
			}
			out := strings.TrimSpace(result.Output())
			if result.ExitCode == 0 && out == "" {
				return "Syntax OK", nil
			}
			if out == "" {
				out = fmt.Sprintf("syntax check exited with code %d", result.ExitCode)
			}
			return out, nil
		},
	})

	reg.Register(FuncTool{
		ToolName:   "show_diff",
		ToolParams: []string{"file_path"},
		Doc:        "Show the git diff for a file to see what has changed.",
		Fn: func(ctx context.Context, args map[string]string) (string, error) {
			result, err := env.ExecCommand(ctx, fmt.Sprintf("git diff '%s' 2>&1", args["file_path"]), timeout)
			if err != nil {
				return "", err
			}
			out := result.Output()
			if strings.TrimSpace(out) == "" || strings.Contains(strings.ToLower(out), "fatal") {
				return "No changes detected (file may not be tracked or no changes made)", nil
			}
			return out, nil
		},
	})

	reg.Register(FuncTool{
		ToolName:   "verify_changes",
		ToolParams: nil,
		Doc:        "Check whether the working tree has any modifications. Call this before finish.",
		Fn: func(ctx context.Context, args map[string]string) (string, error) {
			result, err := env.ExecCommand(ctx, "git status --short", timeout)
			if err != nil {
				return "", err
			}
			out := strings.TrimSpace(result.Output())
			if out == "" {
				return "No changes detected", nil
			}
			return out, nil
		},
	})

	reg.Register(FuncTool{
		ToolName:   "get_git_status",
		ToolParams: nil,
		Doc:        "Get the full git status output for the repository.",
		Fn: func(ctx context.Context, args map[string]string) (string, error) {
			result, err := env.ExecCommand(ctx, "git status", timeout)
			if err != nil {
				return "", err
			}
			out := strings.TrimSpace(result.Output())
			if out == "" {
				return "No git status available", nil
			}
			return out, nil
		},
	})

	reg.Register(FuncTool{
		ToolName:   "get_repo_info",
		ToolParams: nil,
		Doc:        "Get the repository name and root directory.",
		Fn: func(ctx context.Context, args map[string]string) (string, error) {
			name := cfg.RepoName
			if name == "" {
				name = "unknown"
			}
			return fmt.Sprintf("Repository: %s\nRoot directory: %s", name, env.WorkingDirectory()), nil
		},
	})

	reg.Register(FuncTool{
		ToolName:   "finish",
		ToolParams: []string{"result"},
		Doc: "Call this with the final result once the task is solved and verify_changes shows modifications. " +
			"Generates the patch that will be submitted.",
		Fn: func(ctx context.Context, args map[string]string) (string, error) {
			// The loop intercepts finish before dispatch; this body only
			// runs when the registry is used standalone.
			return args["result"], nil
		},
	})
}

// splitKeepEnds splits s into lines that keep their trailing newline, so
// joining the slice reproduces the input byte for byte.
func splitKeepEnds(s string) []string {
	if s == "" {
		return nil
	}
	var lines []string
	for {
		idx := strings.IndexByte(s, '\n')
		if idx == -1 {
			lines = append(lines, s)
			return lines
		}
		lines = append(lines, s[:idx+1])
		s = s[idx+1:]
		if s == "" {
			return lines
		}
	}
}

// replaceInFile rewrites an inclusive 1-indexed line range of a file.
// Line numbers are normalized rather than rejected: swapped bounds are
// reordered, values below 1 clamp to 1, and ranges past the end of the
// file append.
func replaceInFile(ctx context.Context, env ExecutionEnvironment, gate *EditGate, args map[string]string) (string, error) {
	path := strings.TrimPrefix(strings.TrimSpace(args["file_path"]), "./")
	fromLine, err := strconv.Atoi(strings.TrimSpace(args["from_line"]))
	if err != nil {
		return "", fmt.Errorf("from_line must be an integer, got %q", args["from_line"])
	}
	toLine, err := strconv.Atoi(strings.TrimSpace(args["to_line"]))
	if err != nil {
		return "", fmt.Errorf("to_line must be an integer, got %q", args["to_line"])
	}
	content := args["content"]

	if !env.FileExists(path) {
		return "", fmt.Errorf("file %s does not exist", path)
	}
	original, err := env.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("error reading file %s: %w", path, err)
	}
	lines := splitKeepEnds(original)

	if fromLine > toLine {
		fromLine, toLine = toLine, fromLine
	}
	if fromLine < 1 {
		fromLine = 1
	}
	if toLine < 1 {
		toLine = 1
	}

	newLines := splitKeepEnds(content)
	if len(newLines) == 0 {
		newLines = []string{""}
	}
	if !strings.HasSuffix(newLines[len(newLines)-1], "\n") {
		newLines[len(newLines)-1] += "\n"
	}

	startIdx := fromLine - 1
	if startIdx > len(lines) {
		startIdx = len(lines)
	}
	endIdx := toLine
	if endIdx > len(lines) {
		endIdx = len(lines)
	}
	if endIdx < startIdx {
		endIdx = startIdx
	}

	warning := ""
	if gate != nil {
		warning = gate.Assess(EditAttempt{
			Path:          path,
			TotalLines:    len(lines),
			ReplacedLines: endIdx - startIdx,
			NewLines:      len(newLines),
		})
	}

	result := make([]string, 0, startIdx+len(newLines)+len(lines)-endIdx)
	result = append(result, lines[:startIdx]...)
	result = append(result, newLines...)
	result = append(result, lines[endIdx:]...)

	if err := env.WriteFile(path, strings.Join(result, "")); err != nil {
		return "", fmt.Errorf("error writing file %s: %w", path, err)
	}

	msg := fmt.Sprintf("Successfully replaced lines %d to %d (%d lines) in %s", fromLine, toLine, toLine-fromLine+1, path)
	if warning != "" {
		msg = warning + "\n" + msg
	}
	if gate != nil {
		msg += gate.VerifyEdit(ctx, path)
	}
	return msg, nil
}

func parseBool(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return def
	}
}
