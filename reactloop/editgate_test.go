package reactloop

import (
	"context"
	"strings"
	"testing"
)

func TestAssessMostOfFile(t *testing.T) {
	gate := NewEditGate(DefaultEditPolicy(), newFakeEnv())

	warning := gate.Assess(EditAttempt{TotalLines: 100, ReplacedLines: 85, NewLines: 90})
	if !strings.Contains(warning, "most of the file") {
		t.Errorf("warning=%q", warning)
	}
}

func TestAssessNearTotalWipe(t *testing.T) {
	gate := NewEditGate(DefaultEditPolicy(), newFakeEnv())

	// Over half the file removed, almost nothing added back.
	warning := gate.Assess(EditAttempt{TotalLines: 100, ReplacedLines: 60, NewLines: 5})
	if !strings.Contains(warning, "wiping") {
		t.Errorf("warning=%q", warning)
	}
}

func TestAssessLargeEdit(t *testing.T) {
	gate := NewEditGate(DefaultEditPolicy(), newFakeEnv())

	warning := gate.Assess(EditAttempt{TotalLines: 1000, ReplacedLines: 60, NewLines: 60})
	if !strings.Contains(warning, "large edit") {
		t.Errorf("warning=%q", warning)
	}
}

func TestAssessSmallEditNoWarning(t *testing.T) {
	gate := NewEditGate(DefaultEditPolicy(), newFakeEnv())

	if warning := gate.Assess(EditAttempt{TotalLines: 100, ReplacedLines: 5, NewLines: 5}); warning != "" {
		t.Errorf("unexpected warning: %q", warning)
	}
}

func TestAssessSeverityOrder(t *testing.T) {
	gate := NewEditGate(DefaultEditPolicy(), newFakeEnv())

	// 85 of 100 lines also exceeds the absolute threshold; the ratio
	// warning is the more severe one and must win.
	warning := gate.Assess(EditAttempt{TotalLines: 100, ReplacedLines: 85, NewLines: 2})
	if !strings.Contains(warning, "most of the file") {
		t.Errorf("warning=%q", warning)
	}
}

func TestAssessEmptyFile(t *testing.T) {
	gate := NewEditGate(DefaultEditPolicy(), newFakeEnv())

	if warning := gate.Assess(EditAttempt{TotalLines: 0, ReplacedLines: 0, NewLines: 20}); warning != "" {
		t.Errorf("unexpected warning for empty file: %q", warning)
	}
}

func TestVerifyEditBlocksAndClears(t *testing.T) {
	env := newFakeEnv()
	failing := true
	env.exec = func(command string) *ExecResult {
		if strings.Contains(command, "py_compile") && failing {
			return &ExecResult{ExitCode: 1, Stderr: "SyntaxError: invalid syntax"}
		}
		return &ExecResult{}
	}
	gate := NewEditGate(DefaultEditPolicy(), env)

	out := gate.VerifyEdit(context.Background(), "pkg/mod.py")
	if !strings.Contains(out, "Syntax check FAILED") {
		t.Errorf("out=%q", out)
	}
	if !gate.Blocked() {
		t.Fatal("gate should be blocked after a failing check")
	}
	if reason := gate.BlockedReason(); !strings.Contains(reason, "pkg/mod.py") {
		t.Errorf("reason=%q", reason)
	}

	failing = false
	out = gate.VerifyEdit(context.Background(), "pkg/mod.py")
	if !strings.Contains(out, "Syntax check passed") {
		t.Errorf("out=%q", out)
	}
	if gate.Blocked() {
		t.Error("gate should clear after a passing check")
	}
	if gate.BlockedReason() != "" {
		t.Errorf("reason should be empty, got %q", gate.BlockedReason())
	}
}

func TestVerifyEditBlockSurvivesOtherFiles(t *testing.T) {
	env := newFakeEnv()
	env.exec = func(command string) *ExecResult {
		if strings.Contains(command, "broken.py") {
			return &ExecResult{ExitCode: 1, Stderr: "SyntaxError: invalid syntax"}
		}
		return &ExecResult{}
	}
	gate := NewEditGate(DefaultEditPolicy(), env)

	gate.VerifyEdit(context.Background(), "broken.py")
	if !gate.Blocked() {
		t.Fatal("gate should be blocked after a failing check")
	}

	if out := gate.VerifyEdit(context.Background(), "other.py"); out != "" {
		t.Errorf("out=%q", out)
	}
	if !gate.Blocked() {
		t.Error("a passing check on another file must not clear the block")
	}
	if reason := gate.BlockedReason(); !strings.Contains(reason, "broken.py") {
		t.Errorf("reason=%q", reason)
	}
}

func TestVerifyEditSkipsUncheckedExtensions(t *testing.T) {
	env := newFakeEnv()
	env.exec = func(command string) *ExecResult {
		return &ExecResult{ExitCode: 1, Stderr: "should never run"}
	}
	gate := NewEditGate(DefaultEditPolicy(), env)

	if out := gate.VerifyEdit(context.Background(), "README.md"); out != "" {
		t.Errorf("out=%q", out)
	}
	if gate.Blocked() {
		t.Error("unchecked extension must not block")
	}
	if len(env.commands) != 0 {
		t.Errorf("no command should run, got %v", env.commands)
	}
}
