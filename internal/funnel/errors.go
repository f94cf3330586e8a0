package funnel

import (
	"errors"
	"fmt"
)

// ErrSessionBusy is returned when a submission arrives while a narrative
// request for the same session is in flight.
var ErrSessionBusy = errors.New("session has a narrative request in flight")

// InputError represents a rejected submission
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// StoreError represents a failure to read or persist session state
type StoreError struct {
	Message string
	Cause   error
}

func (e *StoreError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}
