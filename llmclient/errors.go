package llmclient

import (
	"fmt"
	"strings"
)

// ClientError is the base error type for all model client errors.
type ClientError struct {
	Message   string
	Cause     error
	Provider  string
	Retryable bool
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Concrete error types. Authentication, access, invalid-request, and
// context-length failures are permanent; the rest are worth retrying.

type AuthenticationError struct{ ClientError }
type AccessDeniedError struct{ ClientError }
type InvalidRequestError struct{ ClientError }
type ContextLengthError struct{ ClientError }
type RateLimitError struct{ ClientError }
type ServerError struct{ ClientError }
type TimeoutError struct{ ClientError }

// IsRetryable returns true if the error is safe to retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch e := err.(type) {
	case *AuthenticationError:
		return false
	case *AccessDeniedError:
		return false
	case *InvalidRequestError:
		return false
	case *ContextLengthError:
		return false
	case *RateLimitError:
		return true
	case *ServerError:
		return true
	case *TimeoutError:
		return true
	case *ClientError:
		return e.Retryable
	default:
		// Unknown errors default to retryable.
		return true
	}
}

// classifyError maps a raw backend error into the taxonomy above based on
// its message content, since gollm does not expose structured status codes.
func classifyError(provider string, err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	base := ClientError{Message: msg, Cause: err, Provider: provider}

	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "401") || strings.Contains(lower, "unauthorized") || strings.Contains(lower, "invalid api key") || strings.Contains(lower, "invalid key"):
		return &AuthenticationError{ClientError: base}
	case strings.Contains(lower, "403") || strings.Contains(lower, "forbidden"):
		return &AccessDeniedError{ClientError: base}
	case strings.Contains(lower, "429") || strings.Contains(lower, "rate limit"):
		base.Retryable = true
		return &RateLimitError{ClientError: base}
	case strings.Contains(lower, "context length") || strings.Contains(lower, "too many tokens"):
		return &ContextLengthError{ClientError: base}
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		base.Retryable = true
		return &TimeoutError{ClientError: base}
	case strings.Contains(lower, "500") || strings.Contains(lower, "502") || strings.Contains(lower, "503") || strings.Contains(lower, "internal server"):
		base.Retryable = true
		return &ServerError{ClientError: base}
	default:
		base.Retryable = true
		return &base
	}
}
