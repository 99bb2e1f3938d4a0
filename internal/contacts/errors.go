package contacts

import "errors"

var (
	// ErrNotFound is returned when deleting a contact that does not exist.
	ErrNotFound = errors.New("contacts: not found")
	// ErrInvalid is returned for contacts that fail validation.
	ErrInvalid = errors.New("contacts: invalid contact")
)
