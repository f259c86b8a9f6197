package models

import (
	"encoding"
	"fmt"
)

// State represents the learning stage of a concept's memory.
type State int

const (
	StateNew        State = iota + 1 // Created, never reviewed.
	StateLearning                    // In initial learning steps.
	StateReview                      // Entered long-term review cycle.
	StateRelearning                  // Lapsed out of Review, relearning.
)

var stateNames = [...]string{
	StateNew:        "new",
	StateLearning:   "learning",
	StateReview:     "review",
	StateRelearning: "relearning",
}

var stateByName = map[string]State{
	"new":        StateNew,
	"learning":   StateLearning,
	"review":     StateReview,
	"relearning": StateRelearning,
}

var (
	_ fmt.Stringer             = State(0)
	_ encoding.TextMarshaler   = State(0)
	_ encoding.TextUnmarshaler = (*State)(nil)
)

// IsValid reports whether s is one of the four defined states.
func (s State) IsValid() bool {
	return s >= StateNew && s <= StateRelearning
}

// String returns the lowercase name of the state. For invalid values it
// returns "state(n)".
func (s State) String() string {
	if s.IsValid() {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ParseState parses a lowercase state name.
func ParseState(name string) (State, error) {
	if s, ok := stateByName[name]; ok {
		return s, nil
	}
	return 0, fmt.Errorf("invalid state: %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid state: %d", int(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	v, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
