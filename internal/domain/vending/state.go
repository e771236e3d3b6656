package vending

import "fmt"

// State identifies which of the four behavioral modes a machine is in
type State string

const (
	StateSoldOut    State = "SOLD_OUT"
	StateNoQuarter  State = "NO_QUARTER"
	StateHasQuarter State = "HAS_QUARTER"
	StateSold       State = "SOLD"
)

var validStates = map[State]bool{
	StateSoldOut:    true,
	StateNoQuarter:  true,
	StateHasQuarter: true,
	StateSold:       true,
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is one of the four machine states
func (s State) IsValid() bool {
	return validStates[s]
}

// ParseState converts a stored or user supplied value into a State
func ParseState(value string) (State, error) {
	s := State(value)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidState, value)
	}
	return s, nil
}
