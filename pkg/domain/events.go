package domain

import "time"

// EventType defines the category of the event.
type EventType string

const (
	EventStateEnter EventType = "state_enter"
	EventStateLeave EventType = "state_leave"
	EventLexicalize EventType = "lexicalize"
	EventFailure    EventType = "failure"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Round     int       `json:"external_merge_round"`
}

// StateEvent represents entry into or exit from a state.
type StateEvent struct {
	EventBase
	State State `json:"state"`
}

// LexicalizeEvent reports a committed lexicalization. Entry is empty when
// the node was lexicalized to nothing.
type LexicalizeEvent struct {
	EventBase
	Node  string `json:"node"`
	Entry string `json:"entry,omitempty"`
	Moved string `json:"moved,omitempty"`
}

// FailureEvent reports that the derivation reached the failure state.
type FailureEvent struct {
	EventBase
	Reason string `json:"reason"`
}

// LifecycleHooks defines callbacks for engine observability. Hooks run
// synchronously inside GoForward and never during GoBack.
type LifecycleHooks struct {
	OnStateEnter func(*StateEvent)
	OnStateLeave func(*StateEvent)
	OnLexicalize func(*LexicalizeEvent)
	OnFailure    func(*FailureEvent)
}
