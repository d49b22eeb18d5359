package reactloop

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Tool is the contract every capability satisfies: a name, an ordered list
// of required parameter names, a description for the catalog, and an invoke
// function taking the parsed argument mapping. Dispatch is an interface
// call plus a presence check, no reflection.
type Tool interface {
	Name() string
	Params() []string
	Description() string
	Invoke(ctx context.Context, args map[string]string) (string, error)
}

// FuncTool adapts a plain function into a Tool.
type FuncTool struct {
	ToolName   string
	ToolParams []string
	Doc        string
	Fn         func(ctx context.Context, args map[string]string) (string, error)
}

func (t FuncTool) Name() string        { return t.ToolName }
func (t FuncTool) Params() []string    { return t.ToolParams }
func (t FuncTool) Description() string { return t.Doc }

func (t FuncTool) Invoke(ctx context.Context, args map[string]string) (string, error) {
	return t.Fn(ctx, args)
}

// Observation is the outcome of dispatching one parsed call. Failed marks
// protocol and execution errors; the text is already formatted for the
// conversation either way.
type Observation struct {
	Text   string
	Failed bool
}

// Registry maps action names to tools. Registration is idempotent:
// re-registering a name replaces its entry (last registration wins).
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds or replaces a tool.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := t.Name()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Dispatch looks up the call's action, validates argument presence, and
// invokes the capability. Unknown actions, missing arguments, and
// capability failures are all recoverable: they come back as failed
// observations, never as panics or returned errors.
func (r *Registry) Dispatch(ctx context.Context, call *ParsedCall) Observation {
	tool, ok := r.Get(call.Name)
	if !ok {
		names := r.Names()
		sort.Strings(names)
		return Observation{
			Text: fmt.Sprintf("Unknown function: %s. Available functions: %s",
				call.Name, strings.Join(names, ", ")),
			Failed: true,
		}
	}

	for _, param := range tool.Params() {
		if _, present := call.Arguments[param]; !present {
			return Observation{
				Text: fmt.Sprintf("Error executing %s: missing required argument %q (expected: %s)",
					call.Name, param, strings.Join(tool.Params(), ", ")),
				Failed: true,
			}
		}
	}

	result, err := tool.Invoke(ctx, call.Arguments)
	if err != nil {
		return Observation{
			Text:   fmt.Sprintf("Error executing %s: %v", call.Name, err),
			Failed: true,
		}
	}
	return Observation{Text: result}
}

// toolCategories groups tools in the catalog the way the system prompt
// presents them. Tools outside every category land under Other Tools.
var toolCategories = []struct {
	Title string
	Names []string
}{
	{"Repository Information", []string{"get_repo_info"}},
	{"File Operations", []string{"show_file", "replace_in_file", "grep", "find_files"}},
	{"Testing & Analysis", []string{"run_test", "check_syntax"}},
	{"Git & Verification", []string{"show_diff", "verify_changes", "get_git_status"}},
	{"General", []string{"run_bash_cmd", "finish"}},
}

// Catalog renders the human/model-readable tool listing for the system
// turn: name, parameter names, and description for every registered tool,
// grouped by category.
func (r *Registry) Catalog() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	describe := func(t Tool) string {
		return fmt.Sprintf("Function: %s(%s)\n%s\n", t.Name(), strings.Join(t.Params(), ", "), t.Description())
	}

	listed := make(map[string]bool)
	var sections []string
	for _, cat := range toolCategories {
		var entries []string
		for _, name := range cat.Names {
			if t, ok := r.tools[name]; ok {
				entries = append(entries, describe(t))
				listed[name] = true
			}
		}
		if len(entries) > 0 {
			sections = append(sections, "### "+cat.Title+"\n"+strings.Join(entries, "\n"))
		}
	}

	var rest []string
	for _, name := range r.order {
		if !listed[name] {
			rest = append(rest, describe(r.tools[name]))
		}
	}
	if len(rest) > 0 {
		sections = append(sections, "### Other Tools\n"+strings.Join(rest, "\n"))
	}

	return strings.Join(sections, "\n")
}
