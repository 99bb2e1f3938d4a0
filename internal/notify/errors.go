package notify

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDeliveryFailed is matched by every DeliveryError.
var ErrDeliveryFailed = errors.New("notify: delivery failed")

// DeliveryError aggregates the failed sends of one notification fan-out.
type DeliveryError struct {
	Kind     string
	Attempts int
	Failures []error
}

func (e *DeliveryError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("notify: %s: %d of %d deliveries failed: %s",
		e.Kind, len(e.Failures), e.Attempts, strings.Join(msgs, "; "))
}

func (e *DeliveryError) Unwrap() []error {
	return append([]error{ErrDeliveryFailed}, e.Failures...)
}
