package reactloop

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/martinemde/reagent/llmclient"
)

var (
	// ErrInvalidRole is returned when a turn is appended with a role outside
	// system/user/assistant, or with a second system role.
	ErrInvalidRole = errors.New("invalid role")

	// ErrUnknownTurn is returned when a turn id does not exist.
	ErrUnknownTurn = errors.New("unknown turn id")
)

// Turn is a single entry in the conversation history.
type Turn struct {
	ID        int            `json:"id"`
	Role      llmclient.Role `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
}

// Conversation is the ordered log of turns the loop maintains. The first
// turn is always the single system turn; all later turns are append-only,
// though their content may be rewritten in place through SetContent (the
// loop uses this for the system turn when the tool catalog changes, and for
// the task turn when a run starts).
type Conversation struct {
	mu    sync.Mutex
	turns []Turn
}

// NewConversation creates a conversation seeded with the system turn.
func NewConversation(systemContent string) *Conversation {
	c := &Conversation{}
	c.turns = append(c.turns, Turn{
		ID:        0,
		Role:      llmclient.RoleSystem,
		Content:   systemContent,
		Timestamp: time.Now(),
	})
	return c
}

// Append adds a turn and returns its id. Ids are strictly increasing.
// The system role is rejected here: the single system turn is created by
// NewConversation and only ever rewritten, never duplicated.
func (c *Conversation) Append(role llmclient.Role, content string) (int, error) {
	if !role.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if role == llmclient.RoleSystem {
		return 0, fmt.Errorf("%w: a system turn already exists", ErrInvalidRole)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	id := len(c.turns)
	c.turns = append(c.turns, Turn{
		ID:        id,
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	return id, nil
}

// SetContent overwrites an existing turn's content in place.
func (c *Conversation) SetContent(id int, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id < 0 || id >= len(c.turns) {
		return fmt.Errorf("%w: %d", ErrUnknownTurn, id)
	}
	c.turns[id].Content = content
	return nil
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.turns)
}

// Turns returns a copy of the history.
func (c *Conversation) Turns() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// RenderForModel projects the history into the role/content sequence the
// model client consumes. Order is preserved and internal ids are not
// exposed. This is the only representation the model client ever receives;
// Transcript below is for humans and must never be substituted here.
func (c *Conversation) RenderForModel() []llmclient.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]llmclient.Message, len(c.turns))
	for i, t := range c.turns {
		out[i] = llmclient.Message{Role: t.Role, Content: t.Content}
	}
	return out
}

// Transcript renders the history as a human-readable debug dump with
// per-turn headers.
func (c *Conversation) Transcript() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var sb strings.Builder
	for _, t := range c.turns {
		fmt.Fprintf(&sb, "----------------------------\n|MESSAGE(role=%q, id=%d)|\n%s\n", t.Role, t.ID, t.Content)
	}
	return sb.String()
}
