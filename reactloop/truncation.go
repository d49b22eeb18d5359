package reactloop

import "fmt"

// TruncateObservation bounds tool output before it enters the conversation.
// Oversized output keeps the head and tail and replaces the middle with an
// elision marker, so the model still sees how a command started and ended.
func TruncateObservation(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	marker := fmt.Sprintf("\n... [%d characters elided] ...\n", len(s)-maxChars)
	headLen := maxChars / 2
	tailLen := maxChars - headLen
	return s[:headLen] + marker + s[len(s)-tailLen:]
}
