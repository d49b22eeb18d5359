package reactloop

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/martinemde/reagent/llmclient"
)

// LoopState describes where a session is in its lifecycle.
type LoopState string

const (
	// StateRunning: the loop is reasoning and acting.
	StateRunning LoopState = "RUNNING"
	// StateBlocked: a failed syntax check is outstanding, finish is vetoed.
	StateBlocked LoopState = "BLOCKED"
	// StateDone: the model called finish and validation passed.
	StateDone LoopState = "DONE"
	// StateExhausted: the round budget ran out before finish.
	StateExhausted LoopState = "EXHAUSTED"
)

// LoopConfig bounds a session.
type LoopConfig struct {
	MaxRounds           int `json:"max_rounds"`
	MaxObservationChars int `json:"max_observation_chars"`
	EventBuffer         int `json:"event_buffer"`
	// LoopDetectionWindow is how many recent calls are scanned for a
	// repeating pattern. Zero disables detection.
	LoopDetectionWindow int `json:"loop_detection_window"`
}

// DefaultLoopConfig returns the standard bounds.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		MaxRounds:           100,
		MaxObservationChars: 30000,
		EventBuffer:         256,
		LoopDetectionWindow: 6,
	}
}

// RunResult is the outcome of one session.
type RunResult struct {
	State  LoopState `json:"state"`
	Result string    `json:"result"`
	Patch  string    `json:"patch"`
	Rounds int       `json:"rounds"`
}

// Agent drives the reason-then-act loop: send the conversation to the
// model, parse the trailing function call, dispatch it, append the
// observation, repeat until finish or the round budget runs out.
type Agent struct {
	id       uuid.UUID
	client   llmclient.Client
	env      ExecutionEnvironment
	parser   *Parser
	registry *Registry
	gate     *EditGate
	conv     *Conversation
	emitter  *EventEmitter
	detector *loopDetector
	logger   *slog.Logger
	config   LoopConfig
	repoName string

	mu    sync.Mutex
	state LoopState
}

// AgentOption configures an Agent.
type AgentOption func(*Agent)

// WithLoopConfig overrides the default bounds.
func WithLoopConfig(cfg LoopConfig) AgentOption {
	return func(a *Agent) { a.config = cfg }
}

// WithEditPolicy replaces the default edit gate thresholds.
func WithEditPolicy(policy EditPolicy) AgentOption {
	return func(a *Agent) { a.gate = NewEditGate(policy, a.env) }
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) AgentOption {
	return func(a *Agent) { a.logger = logger }
}

// WithRepoName sets the name get_repo_info reports.
func WithRepoName(name string) AgentOption {
	return func(a *Agent) { a.repoName = name }
}

// NewAgent builds an agent over env talking to client. The standard
// software-engineering toolset is registered; RegisterTool adds more
// before Run.
func NewAgent(client llmclient.Client, env ExecutionEnvironment, opts ...AgentOption) *Agent {
	a := &Agent{
		id:       uuid.New(),
		client:   client,
		env:      env,
		parser:   &Parser{},
		registry: NewRegistry(),
		config:   DefaultLoopConfig(),
		logger:   slog.Default(),
		state:    StateRunning,
	}
	a.gate = NewEditGate(DefaultEditPolicy(), env)
	for _, opt := range opts {
		opt(a)
	}
	a.emitter = NewEventEmitter(a.config.EventBuffer)
	a.detector = newLoopDetector(a.config.LoopDetectionWindow)

	toolCfg := DefaultSWEToolsConfig()
	toolCfg.RepoName = a.repoName
	RegisterSWETools(a.registry, a.env, a.gate, toolCfg)

	a.conv = NewConversation(BuildSystemPrompt(a.registry, a.parser))
	return a
}

// ID returns the agent's unique identifier.
func (a *Agent) ID() uuid.UUID { return a.id }

// State returns the current lifecycle state.
func (a *Agent) State() LoopState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Agent) setState(s LoopState) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// Events exposes the session's event stream. The channel closes when Run
// returns.
func (a *Agent) Events() <-chan Event {
	return a.emitter.Events()
}

// Conversation returns the underlying turn store.
func (a *Agent) Conversation() *Conversation {
	return a.conv
}

// RegisterTool adds a capability and refreshes the system turn's catalog.
func (a *Agent) RegisterTool(t Tool) {
	a.registry.Register(t)
	a.refreshSystemTurn()
}

// refreshSystemTurn rebuilds the system turn so the catalog and response
// format always reflect the current registry.
func (a *Agent) refreshSystemTurn() {
	_ = a.conv.SetContent(0, BuildSystemPrompt(a.registry, a.parser))
}

// Run executes the loop for the given task. A model or environment
// failure is the only fatal path; malformed calls, unknown actions, and
// tool failures feed back into the conversation as observations.
func (a *Agent) Run(ctx context.Context, task string) (RunResult, error) {
	defer a.emitter.Close()

	a.refreshSystemTurn()
	if _, err := a.conv.Append(llmclient.RoleUser, task); err != nil {
		return RunResult{State: a.State()}, err
	}

	for round := 1; round <= a.config.MaxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return RunResult{State: a.State(), Rounds: round - 1}, err
		}

		a.emitter.Emit(Event{Type: EventRoundStart, Round: round})

		response, err := a.client.Generate(ctx, a.conv.RenderForModel())
		if err != nil {
			a.emitter.Emit(Event{Type: EventError, Round: round, Message: err.Error()})
			return RunResult{State: a.State(), Rounds: round}, fmt.Errorf("model call failed: %w", err)
		}

		if _, err := a.conv.Append(llmclient.RoleAssistant, response); err != nil {
			return RunResult{State: a.State(), Rounds: round}, err
		}
		a.emitter.Emit(Event{Type: EventAssistantResponse, Round: round})

		call, err := a.parser.Parse(response)
		if err != nil {
			a.logger.Warn("malformed function call", "agent_id", a.id, "round", round, "error", err)
			a.emitter.Emit(Event{Type: EventMalformedCall, Round: round, Message: err.Error()})
			if _, aerr := a.conv.Append(llmclient.RoleUser, fmt.Sprintf("Error parsing function call: %v", err)); aerr != nil {
				return RunResult{State: a.State(), Rounds: round}, aerr
			}
			continue
		}

		a.emitter.Emit(Event{Type: EventDispatch, Round: round, Tool: call.Name})

		if call.Name == "finish" {
			result, done, err := a.tryFinish(ctx, round, call)
			if err != nil {
				return RunResult{State: a.State(), Rounds: round}, err
			}
			if done {
				a.setState(StateDone)
				a.emitter.Emit(Event{Type: EventDone, Round: round})
				return RunResult{State: StateDone, Result: result.Result, Patch: result.Patch, Rounds: round}, nil
			}
			continue
		}

		obs := a.registry.Dispatch(ctx, call)
		text := TruncateObservation(obs.Text, a.config.MaxObservationChars)
		if obs.Failed {
			a.logger.Debug("tool failed", "agent_id", a.id, "round", round, "tool", call.Name)
		} else {
			text = "Observation: " + text
		}
		a.emitter.Emit(Event{Type: EventObservation, Round: round, Tool: call.Name})
		if _, err := a.conv.Append(llmclient.RoleUser, text); err != nil {
			return RunResult{State: a.State(), Rounds: round}, err
		}

		if a.detector.Observe(call) {
			a.detector.Reset()
			a.emitter.Emit(Event{Type: EventLoopDetected, Round: round, Tool: call.Name})
			warning := "You appear to be repeating the same call with the same arguments. " +
				"Step back, re-read the issue, and try a different approach."
			if _, err := a.conv.Append(llmclient.RoleUser, warning); err != nil {
				return RunResult{State: a.State(), Rounds: round}, err
			}
		}

		if warning := a.gate.TakeWarning(); warning != "" {
			a.emitter.Emit(Event{Type: EventGateWarning, Round: round, Tool: call.Name, Message: warning})
		}
		if a.gate.Blocked() {
			a.setState(StateBlocked)
			a.emitter.Emit(Event{Type: EventGateBlocked, Round: round, Message: a.gate.BlockedReason()})
		} else if a.State() == StateBlocked {
			a.setState(StateRunning)
		}
	}

	// Budget exhausted: submit whatever changes exist.
	a.setState(StateExhausted)
	result := "Max rounds reached"
	patch := ""
	if noChanges(a.verifyChanges(ctx)) {
		result = "Max rounds reached - no changes made"
	} else {
		patch = a.generatePatch(ctx)
	}
	a.emitter.Emit(Event{Type: EventExhausted, Round: a.config.MaxRounds, Message: result})
	return RunResult{State: StateExhausted, Result: result, Patch: patch, Rounds: a.config.MaxRounds}, nil
}

// tryFinish validates a finish call. It returns done=false after appending
// a rejection observation when validation fails.
func (a *Agent) tryFinish(ctx context.Context, round int, call *ParsedCall) (RunResult, bool, error) {
	if _, present := call.Arguments["result"]; !present {
		a.emitter.Emit(Event{Type: EventFinishRejected, Round: round, Message: "missing result argument"})
		msg := fmt.Sprintf("Error executing %s: missing required argument %q (expected: %s)",
			call.Name, "result", "result")
		_, err := a.conv.Append(llmclient.RoleUser, msg)
		return RunResult{}, false, err
	}

	if a.gate.Blocked() {
		reason := a.gate.BlockedReason()
		a.emitter.Emit(Event{Type: EventFinishRejected, Round: round, Message: reason})
		msg := fmt.Sprintf(
			"ERROR: Cannot finish - %s\n\nFix the syntax errors and re-run check_syntax() before calling finish().",
			reason)
		_, err := a.conv.Append(llmclient.RoleUser, msg)
		return RunResult{}, false, err
	}

	status := a.verifyChanges(ctx)
	if noChanges(status) {
		a.emitter.Emit(Event{Type: EventFinishRejected, Round: round, Message: "no changes detected"})
		msg := fmt.Sprintf(
			"ERROR: Cannot finish - no changes detected!\n\n"+
				"Status: %s\n\n"+
				"You MUST use replace_in_file() to make actual code changes before calling finish(). "+
				"Text descriptions in finish() do NOT create patches - only file edits do.\n\n"+
				"Please:\n"+
				"1. Use replace_in_file() to modify the code\n"+
				"2. Call verify_changes() to confirm changes exist\n"+
				"3. Only then call finish()",
			status)
		_, err := a.conv.Append(llmclient.RoleUser, msg)
		return RunResult{}, false, err
	}

	return RunResult{
		Result: call.Arguments["result"],
		Patch:  a.generatePatch(ctx),
	}, true, nil
}

// verifyChanges runs git status through the registered tool so tests can
// substitute their own.
func (a *Agent) verifyChanges(ctx context.Context) string {
	tool, ok := a.registry.Get("verify_changes")
	if !ok {
		return ""
	}
	out, err := tool.Invoke(ctx, nil)
	if err != nil {
		return fmt.Sprintf("Error checking status: %v", err)
	}
	return out
}

func noChanges(status string) bool {
	trimmed := strings.TrimSpace(status)
	return trimmed == "" || strings.Contains(status, "No changes detected")
}

// generatePatch stages everything and returns the cached diff. Anything
// that does not look like a unified diff yields an empty patch, which the
// evaluation side accepts.
func (a *Agent) generatePatch(ctx context.Context) string {
	if _, err := a.env.ExecCommand(ctx, "git add -A", 60000); err != nil {
		a.logger.Warn("git add failed", "agent_id", a.id, "error", err)
		return ""
	}
	result, err := a.env.ExecCommand(ctx, "git diff --cached", 60000)
	if err != nil {
		a.logger.Warn("git diff failed", "agent_id", a.id, "error", err)
		return ""
	}
	patch := result.Output()
	if !strings.HasPrefix(strings.TrimSpace(patch), "diff --git") {
		return ""
	}
	return patch
}
