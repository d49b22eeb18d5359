package llmclient

import (
	"context"
	"fmt"
)

// Role identifies who produced a message in the prompt sequence.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether the role is one of the three recognized values.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message is one role/content entry in the prompt sequence. This structured
// form, not any pretty-printed rendering, is the contract the model client
// depends on.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Client produces a single text completion for an ordered message sequence.
// Implementations must fail loudly on malformed input rather than silently
// truncating it.
type Client interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// ValidateMessages rejects sequences the Generate contract does not accept:
// empty input or any message with an unrecognized role.
func ValidateMessages(messages []Message) error {
	if len(messages) == 0 {
		return &InvalidRequestError{ClientError: ClientError{
			Message: "message sequence is empty",
		}}
	}
	for i, m := range messages {
		if !m.Role.Valid() {
			return &InvalidRequestError{ClientError: ClientError{
				Message: fmt.Sprintf("message %d has unrecognized role %q", i, m.Role),
			}}
		}
	}
	return nil
}
