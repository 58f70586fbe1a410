package memory

import "fmt"

// CapacityError occurs when a chunk exceeds the guest memory's capacity.
// This is a fatal configuration error (module built with too small a
// maximum memory, or a caller streaming oversized chunks); it is not retried.
type CapacityError struct {
	Requested uint32
	Capacity  uint32
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("chunk of %d bytes exceeds guest memory capacity of %d bytes",
		e.Requested, e.Capacity)
}

// WriteError occurs when the guest rejects a write the bridge believed was
// in bounds. Seeing this means the memory changed underneath the bridge in
// a way the generation token did not capture.
type WriteError struct {
	Offset uint32
	Length uint32
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("guest rejected write of %d bytes at offset %d", e.Length, e.Offset)
}

// ReadError occurs when the result window reported by the guest callback is
// out of bounds for its own memory.
type ReadError struct {
	Offset uint32
	Length uint32
	Size   uint32
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("result window [%d, %d) out of bounds for guest memory of %d bytes",
		e.Offset, e.Offset+e.Length, e.Size)
}
