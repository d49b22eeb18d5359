package reactloop

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
)

// callSignature computes a deterministic signature for a parsed call
// (name + hash of the sorted arguments).
func callSignature(call *ParsedCall) string {
	keys := make([]string, 0, len(call.Arguments))
	for k := range call.Arguments {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte(0)
		sb.WriteString(call.Arguments[k])
		sb.WriteByte(0)
	}
	h := sha256.Sum256([]byte(sb.String()))
	return fmt.Sprintf("%s:%x", call.Name, h[:8])
}

// loopDetector tracks recent call signatures and flags repeating patterns.
type loopDetector struct {
	window int
	sigs   []string
}

// newLoopDetector creates a detector over the last window calls. A window
// of 0 disables detection.
func newLoopDetector(window int) *loopDetector {
	return &loopDetector{window: window}
}

// Observe records a dispatched call and reports whether the recent window
// is stuck repeating a pattern of length 1, 2, or 3.
func (d *loopDetector) Observe(call *ParsedCall) bool {
	if d.window <= 0 {
		return false
	}
	d.sigs = append(d.sigs, callSignature(call))
	if len(d.sigs) > d.window {
		d.sigs = d.sigs[len(d.sigs)-d.window:]
	}
	if len(d.sigs) < d.window {
		return false
	}

	for patternLen := 1; patternLen <= 3; patternLen++ {
		if d.window%patternLen != 0 {
			continue
		}
		pattern := d.sigs[:patternLen]
		allMatch := true
		for i := patternLen; i < d.window && allMatch; i += patternLen {
			for j := 0; j < patternLen; j++ {
				if d.sigs[i+j] != pattern[j] {
					allMatch = false
					break
				}
			}
		}
		if allMatch {
			return true
		}
	}
	return false
}

// Reset clears the detector, used after a warning has been issued so the
// model gets a full window to change course.
func (d *loopDetector) Reset() {
	d.sigs = d.sigs[:0]
}
