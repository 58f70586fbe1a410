package spell

import "fmt"

// StateError occurs when an operation is invoked in the wrong facade state,
// e.g. a lookup against a failed checker.
type StateError struct {
	Op    string
	State string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s requires a ready checker (state: %s)", e.Op, e.State)
}

// ProtocolError occurs when the guest violates the entry-point contract,
// e.g. returning from a lookup without invoking the result callback.
type ProtocolError struct {
	Op      string
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("guest protocol violation in %s: %s", e.Op, e.Message)
}
