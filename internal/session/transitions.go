package session

import "fmt"

// State is the position of a session in its lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateCreating   State = "creating"
	StateEditing    State = "editing"
	StateSubmitting State = "submitting"
)

var transitions = map[State][]State{
	StateIdle:       {StateCreating, StateEditing},
	StateCreating:   {StateSubmitting, StateIdle},
	StateEditing:    {StateSubmitting, StateIdle},
	StateSubmitting: {StateIdle, StateCreating, StateEditing},
}

func validateTransition(current, target State) error {
	allowed, ok := transitions[current]
	if !ok {
		return fmt.Errorf("unknown session state: %s", current)
	}
	for _, s := range allowed {
		if s == target {
			return nil
		}
	}
	return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current, target)
}

// Active reports whether a draft is open.
func (s State) Active() bool {
	return s == StateCreating || s == StateEditing
}
