package exercise

import "errors"

// ErrUnknown is returned for exercise types with no catalog entry.
var ErrUnknown = errors.New("exercise: unknown exercise")
