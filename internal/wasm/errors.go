package wasm

import "fmt"

// CompileError occurs when guest module compilation fails.
type CompileError struct {
	ModuleName string
	Err        error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("failed to compile guest module '%s': %v", e.ModuleName, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// InstantiateError occurs when module instantiation fails.
type InstantiateError struct {
	ModuleName string
	InstanceID string
	Err        error
}

func (e *InstantiateError) Error() string {
	return fmt.Sprintf("failed to instantiate module '%s' (instance: %s): %v",
		e.ModuleName, e.InstanceID, e.Err)
}

func (e *InstantiateError) Unwrap() error {
	return e.Err
}

// ExportNotFoundError occurs when the guest binary is missing an entry point
// the contract manifest names.
type ExportNotFoundError struct {
	ModuleName string
	ExportName string
}

func (e *ExportNotFoundError) Error() string {
	return fmt.Sprintf("export '%s' not found in module '%s'",
		e.ExportName, e.ModuleName)
}
