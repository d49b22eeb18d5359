package reactloop

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// EditPolicy holds the thresholds for judging an edit's blast radius and
// the syntax checks that run after one lands.
type EditPolicy struct {
	// MaxReplacedLines triggers a large-edit warning when exceeded.
	MaxReplacedLines int `json:"max_replaced_lines"`
	// WipeRatio and WipeNewLines together flag edits that remove most of
	// a file while adding little back.
	WipeRatio    float64 `json:"wipe_ratio"`
	WipeNewLines int     `json:"wipe_new_lines"`
	// MostOfFileRatio flags edits that rewrite nearly the whole file.
	MostOfFileRatio float64 `json:"most_of_file_ratio"`
	// CheckedExtensions lists file extensions that get a post-edit syntax
	// check. SyntaxCheckCommand is a format string taking the file path.
	CheckedExtensions  []string `json:"checked_extensions"`
	SyntaxCheckCommand string   `json:"syntax_check_command"`
}

// DefaultEditPolicy returns the standard thresholds.
func DefaultEditPolicy() EditPolicy {
	return EditPolicy{
		MaxReplacedLines:   50,
		WipeRatio:          0.5,
		WipeNewLines:       10,
		MostOfFileRatio:    0.8,
		CheckedExtensions:  []string{".py"},
		SyntaxCheckCommand: "python3 -m py_compile '%s'",
	}
}

// EditAttempt describes a pending edit in terms of line counts.
type EditAttempt struct {
	Path          string
	TotalLines    int
	ReplacedLines int
	NewLines      int
}

// EditGate assesses edits before they apply and verifies files after.
// Warnings are advisory and never block the edit itself; a failed syntax
// check on a verified file blocks session completion until a later edit
// fixes it.
type EditGate struct {
	policy EditPolicy
	env    ExecutionEnvironment

	mu          sync.Mutex
	blocked     bool
	blockedFile string
	blockedMsg  string
	lastWarning string
}

// NewEditGate creates a gate over env using the given policy.
func NewEditGate(policy EditPolicy, env ExecutionEnvironment) *EditGate {
	return &EditGate{policy: policy, env: env}
}

// Assess returns an advisory warning for the attempt, or "" when the edit
// is unremarkable. Checks run from most to least severe so the strongest
// applicable warning wins.
func (g *EditGate) Assess(attempt EditAttempt) string {
	warning := g.assess(attempt)
	g.mu.Lock()
	g.lastWarning = warning
	g.mu.Unlock()
	return warning
}

func (g *EditGate) assess(attempt EditAttempt) string {
	ratio := 0.0
	if attempt.TotalLines > 0 {
		ratio = float64(attempt.ReplacedLines) / float64(attempt.TotalLines)
	}

	if ratio > g.policy.MostOfFileRatio {
		return fmt.Sprintf(
			"Warning: this edit replaces %d of %d lines, most of the file. Double-check the line range before proceeding.",
			attempt.ReplacedLines, attempt.TotalLines)
	}
	if ratio > g.policy.WipeRatio && attempt.NewLines < g.policy.WipeNewLines {
		return fmt.Sprintf(
			"Warning: this edit removes %d of %d lines while adding only %d, nearly wiping the file. Verify you are not deleting needed code.",
			attempt.ReplacedLines, attempt.TotalLines, attempt.NewLines)
	}
	if attempt.ReplacedLines > g.policy.MaxReplacedLines {
		return fmt.Sprintf(
			"Warning: large edit replacing %d lines. Prefer smaller, targeted changes.",
			attempt.ReplacedLines)
	}
	return ""
}

// TakeWarning returns the warning from the most recent assessment and
// clears it. The loop uses this to surface advisories on the event stream.
func (g *EditGate) TakeWarning() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	w := g.lastWarning
	g.lastWarning = ""
	return w
}

// checked reports whether path's extension has a registered syntax check.
func (g *EditGate) checked(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range g.policy.CheckedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// VerifyEdit runs the post-edit syntax check for path if its extension is
// covered. A failing check blocks completion; the block lifts only when
// the same file later passes, so a clean edit elsewhere cannot clear it.
// The returned string is appended to the edit observation.
func (g *EditGate) VerifyEdit(ctx context.Context, path string) string {
	if !g.checked(path) || g.policy.SyntaxCheckCommand == "" {
		return ""
	}

	command := fmt.Sprintf(g.policy.SyntaxCheckCommand, path)
	result, err := g.env.ExecCommand(ctx, command, 30000)

	g.mu.Lock()
	defer g.mu.Unlock()

	if err != nil || result.ExitCode != 0 {
		detail := ""
		if err != nil {
			detail = err.Error()
		} else {
			detail = strings.TrimSpace(result.Output())
		}
		g.blocked = true
		g.blockedFile = path
		g.blockedMsg = detail
		return fmt.Sprintf("\nSyntax check FAILED for %s:\n%s\nFix the syntax errors before finishing.", path, detail)
	}

	if g.blocked && path == g.blockedFile {
		g.blocked = false
		g.blockedFile = ""
		g.blockedMsg = ""
		return fmt.Sprintf("\nSyntax check passed for %s.", path)
	}
	return ""
}

// Blocked reports whether a failed syntax check is outstanding.
func (g *EditGate) Blocked() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.blocked
}

// BlockedReason describes the outstanding failure, or "" when unblocked.
func (g *EditGate) BlockedReason() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.blocked {
		return ""
	}
	return fmt.Sprintf("syntax check failing for %s: %s", g.blockedFile, g.blockedMsg)
}
