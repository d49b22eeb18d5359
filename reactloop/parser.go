package reactloop

import (
	"fmt"
	"strings"
)

// Wire markers of the textual call protocol. The model emits free-form
// reasoning followed by exactly one delimited call block; the markers are
// fixed and no escaping is supported.
const (
	BeginCallMarker = "----BEGIN_FUNCTION_CALL----"
	EndCallMarker   = "----END_FUNCTION_CALL----"
	ArgMarker       = "----ARG----"
	ValueMarker     = "----VALUE----"
)

// MalformedCallError reports a completion from which no well-formed call
// could be extracted. The loop turns it into a synthetic observation so the
// model can retry; it never crashes the run.
type MalformedCallError struct {
	Reason string
}

func (e *MalformedCallError) Error() string {
	return "malformed function call: " + e.Reason
}

// ParsedCall is the structured intent extracted from one completion. It
// lives for a single loop round.
type ParsedCall struct {
	Rationale string
	Name      string
	Arguments map[string]string
}

// Parser extracts the final call block from a model completion.
type Parser struct{}

// ResponseFormat returns the template the system prompt shows the model so
// it emits parseable calls.
func (Parser) ResponseFormat() string {
	return fmt.Sprintf(`your_thoughts_here
...
%s
function_name
%s
arg1_name
%s
arg1_value (can be multiline)
%s
arg2_name
%s
arg2_value (can be multiline)
...
%s`, BeginCallMarker, ArgMarker, ValueMarker, ArgMarker, ValueMarker, EndCallMarker)
}

// Parse extracts the last well-formed call block from text. The search is
// rightmost-first on both markers: a model may think out loud about a
// hypothetical call earlier in its reasoning, and only the final block is
// actionable. Everything before the chosen begin marker is captured
// verbatim as the rationale.
func (Parser) Parse(text string) (*ParsedCall, error) {
	begin := strings.LastIndex(text, BeginCallMarker)
	end := strings.LastIndex(text, EndCallMarker)
	if begin == -1 || end == -1 || end < begin {
		return nil, &MalformedCallError{Reason: "no BEGIN/END call block found"}
	}

	rationale := strings.TrimSpace(text[:begin])
	block := strings.TrimSpace(text[begin+len(BeginCallMarker) : end])
	if block == "" {
		return nil, &MalformedCallError{Reason: "call block has no action name"}
	}

	lines := strings.Split(block, "\n")
	name := strings.TrimSpace(lines[0])
	if name == "" {
		return nil, &MalformedCallError{Reason: "call block has no action name"}
	}

	// Argument groups: ARG marker, name line, VALUE marker, then value lines
	// running to the next ARG marker or the end of the block. Values keep
	// embedded newlines and interior blank lines. A name repeated within one
	// block overwrites the earlier value (last write wins).
	args := make(map[string]string)
	i := 1
	for i < len(lines) {
		if strings.TrimSpace(lines[i]) != ArgMarker {
			i++
			continue
		}
		i++
		if i >= len(lines) {
			break
		}
		argName := strings.TrimSpace(lines[i])
		i++

		if i < len(lines) && strings.TrimSpace(lines[i]) == ValueMarker {
			i++
			var valueLines []string
			for i < len(lines) && strings.TrimSpace(lines[i]) != ArgMarker {
				valueLines = append(valueLines, lines[i])
				i++
			}
			args[argName] = strings.TrimSpace(strings.Join(valueLines, "\n"))
		} else {
			// ARG group without a VALUE marker yields an empty value.
			args[argName] = ""
		}
	}

	return &ParsedCall{
		Rationale: rationale,
		Name:      name,
		Arguments: args,
	}, nil
}
