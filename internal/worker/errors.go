package worker

import "fmt"

// InitError occurs when a worker fails before reaching ready. It is
// terminal: the worker has exited and a fresh one must be started.
type InitError struct {
	Message string
}

func (e *InitError) Error() string {
	return fmt.Sprintf("worker initialization failed: %s", e.Message)
}

// RequestError occurs when the worker answers a request with an error.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("worker request failed: %s", e.Message)
}

// GoneError occurs when the worker exits while a response was awaited.
type GoneError struct{}

func (e *GoneError) Error() string {
	return "worker exited while a request was in flight"
}
