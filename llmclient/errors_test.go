package llmclient

import (
	"errors"
	"testing"
)

type stubError struct{ msg string }

func (e *stubError) Error() string { return e.msg }

func TestClassifyError(t *testing.T) {
	tests := []struct {
		msg       string
		retryable bool
		check     func(error) bool
	}{
		{"401 Unauthorized", false, func(err error) bool { _, ok := err.(*AuthenticationError); return ok }},
		{"invalid api key provided", false, func(err error) bool { _, ok := err.(*AuthenticationError); return ok }},
		{"403 Forbidden", false, func(err error) bool { _, ok := err.(*AccessDeniedError); return ok }},
		{"429 Too Many Requests", true, func(err error) bool { _, ok := err.(*RateLimitError); return ok }},
		{"rate limit exceeded", true, func(err error) bool { _, ok := err.(*RateLimitError); return ok }},
		{"maximum context length exceeded", false, func(err error) bool { _, ok := err.(*ContextLengthError); return ok }},
		{"timeout waiting for response", true, func(err error) bool { _, ok := err.(*TimeoutError); return ok }},
		{"500 internal server error", true, func(err error) bool { _, ok := err.(*ServerError); return ok }},
		{"502 bad gateway", true, func(err error) bool { _, ok := err.(*ServerError); return ok }},
		{"something unknown happened", true, func(err error) bool { _, ok := err.(*ClientError); return ok }},
	}

	for _, tt := range tests {
		err := classifyError("openai", &stubError{msg: tt.msg})
		if err == nil {
			t.Errorf("%q: expected non-nil error", tt.msg)
			continue
		}
		if !tt.check(err) {
			t.Errorf("%q: unexpected type %T", tt.msg, err)
		}
		if got := IsRetryable(err); got != tt.retryable {
			t.Errorf("%q: IsRetryable = %v, want %v", tt.msg, got, tt.retryable)
		}
	}
}

func TestClassifyErrorNil(t *testing.T) {
	if err := classifyError("openai", nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestClassifiedErrorUnwraps(t *testing.T) {
	cause := &stubError{msg: "429 rate limit"}
	err := classifyError("anthropic", cause)
	if !errors.Is(err, cause) {
		t.Error("expected classified error to unwrap to the original cause")
	}
}

func TestIsRetryableUnknownError(t *testing.T) {
	if !IsRetryable(errors.New("transient network blip")) {
		t.Error("unknown errors should default to retryable")
	}
	if IsRetryable(nil) {
		t.Error("nil must not be retryable")
	}
}
