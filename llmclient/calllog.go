package llmclient

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	slogmulti "github.com/samber/slog-multi"
)

// CallLog records every model call as a structured log entry. Entries go to
// a JSONL file and, optionally, to an additional handler (e.g. a console
// text handler) via a fan-out.
type CallLog struct {
	runID  string
	logger *slog.Logger
	file   io.Closer
	mu     sync.Mutex
	seq    int
}

// NewCallLog creates a call log writing JSONL entries to path. When extra is
// non-nil, entries are fanned out to it as well.
func NewCallLog(path string, extra slog.Handler) (*CallLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("call log: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("call log: %w", err)
	}

	jsonHandler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelInfo})
	var handler slog.Handler = jsonHandler
	if extra != nil {
		handler = slogmulti.Fanout(jsonHandler, extra)
	}

	return &CallLog{
		runID:  uuid.New().String(),
		logger: slog.New(handler),
		file:   f,
	}, nil
}

// NewCallLogWithHandler creates a call log writing only to the given
// handler. Used in tests and by hosts that manage their own sinks.
func NewCallLogWithHandler(handler slog.Handler) *CallLog {
	return &CallLog{
		runID:  uuid.New().String(),
		logger: slog.New(handler),
	}
}

// RunID returns the identifier shared by all entries of this log.
func (l *CallLog) RunID() string { return l.runID }

// Record logs one Generate call.
func (l *CallLog) Record(model string, messageCount int, response string, err error) {
	l.mu.Lock()
	l.seq++
	seq := l.seq
	l.mu.Unlock()

	attrs := []any{
		slog.String("run_id", l.runID),
		slog.Int("call_number", seq),
		slog.String("model", model),
		slog.Int("messages", messageCount),
		slog.Bool("success", err == nil),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		l.logger.Error("llm call failed", attrs...)
		return
	}
	attrs = append(attrs, slog.Int("response_chars", len(response)), slog.String("response", response))
	l.logger.Info("llm call", attrs...)
}

// Close releases the underlying file, if any.
func (l *CallLog) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
