package reactloop

import "time"

// EventType identifies the kind of loop event.
type EventType string

const (
	EventRoundStart        EventType = "round_start"
	EventAssistantResponse EventType = "assistant_response"
	EventMalformedCall     EventType = "malformed_call"
	EventDispatch          EventType = "dispatch"
	EventObservation       EventType = "observation"
	EventGateWarning       EventType = "gate_warning"
	EventLoopDetected      EventType = "loop_detected"
	EventGateBlocked       EventType = "gate_blocked"
	EventFinishRejected    EventType = "finish_rejected"
	EventDone              EventType = "done"
	EventExhausted         EventType = "exhausted"
	EventError             EventType = "error"
)

// Event is a single notification from a running agent.
type Event struct {
	Type      EventType `json:"type"`
	Round     int       `json:"round"`
	Message   string    `json:"message,omitempty"`
	Tool      string    `json:"tool,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventEmitter delivers events to an optional channel without ever
// blocking the loop. A nil emitter is valid and drops everything.
type EventEmitter struct {
	ch chan Event
}

// NewEventEmitter creates an emitter with the given buffer size.
func NewEventEmitter(buffer int) *EventEmitter {
	if buffer <= 0 {
		buffer = 64
	}
	return &EventEmitter{ch: make(chan Event, buffer)}
}

// Events returns the receive side of the event stream.
func (e *EventEmitter) Events() <-chan Event {
	if e == nil {
		return nil
	}
	return e.ch
}

// Emit sends an event if there is room, otherwise drops it.
func (e *EventEmitter) Emit(evt Event) {
	if e == nil || e.ch == nil {
		return
	}
	evt.Timestamp = time.Now()
	select {
	case e.ch <- evt:
	default:
	}
}

// Close closes the event stream. The agent calls this when Run returns.
func (e *EventEmitter) Close() {
	if e != nil && e.ch != nil {
		close(e.ch)
	}
}
