package llmclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func decodeEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("bad JSONL line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestCallLogRecordsSuccess(t *testing.T) {
	var buf bytes.Buffer
	log := NewCallLogWithHandler(slog.NewJSONHandler(&buf, nil))

	log.Record("gpt-4o-mini", 3, "the answer", nil)

	entries := decodeEntries(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e["run_id"] != log.RunID() {
		t.Errorf("run_id=%v, want %v", e["run_id"], log.RunID())
	}
	if e["call_number"] != float64(1) {
		t.Errorf("call_number=%v, want 1", e["call_number"])
	}
	if e["model"] != "gpt-4o-mini" || e["messages"] != float64(3) {
		t.Errorf("model/messages wrong: %v", e)
	}
	if e["success"] != true || e["response"] != "the answer" {
		t.Errorf("success/response wrong: %v", e)
	}
}

func TestCallLogRecordsFailure(t *testing.T) {
	var buf bytes.Buffer
	log := NewCallLogWithHandler(slog.NewJSONHandler(&buf, nil))

	log.Record("gpt-4o-mini", 2, "", errors.New("429 rate limit"))

	entries := decodeEntries(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e["success"] != false {
		t.Errorf("success=%v, want false", e["success"])
	}
	if e["error"] != "429 rate limit" {
		t.Errorf("error=%v", e["error"])
	}
	if _, present := e["response"]; present {
		t.Error("failed calls must not log a response")
	}
}

func TestCallLogSequenceIncrements(t *testing.T) {
	var buf bytes.Buffer
	log := NewCallLogWithHandler(slog.NewJSONHandler(&buf, nil))

	log.Record("m", 1, "a", nil)
	log.Record("m", 2, "b", nil)
	log.Record("m", 3, "c", nil)

	entries := decodeEntries(t, &buf)
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	for i, e := range entries {
		if e["call_number"] != float64(i+1) {
			t.Errorf("entry %d: call_number=%v", i, e["call_number"])
		}
	}
}
