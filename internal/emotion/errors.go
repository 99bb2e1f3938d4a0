package emotion

import (
	"errors"
	"fmt"
)

// ErrValidation is matched by every malformed reading error.
var ErrValidation = errors.New("emotion: invalid reading")

// ValidationError describes which field of a reading was rejected.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s=%v %s", ErrValidation, e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
