package escalation

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when an action does not apply to the
// current state. The machine is left unchanged.
var ErrInvalidTransition = errors.New("escalation: invalid state transition")

func invalid(action string, state State) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, state)
}
