package codec

import "fmt"

// BoundsError occurs when a result buffer's encoded lengths imply a read
// past the window supplied by the guest. Decoding stops at the first
// violation; nothing adjacent to the window is ever read.
type BoundsError struct {
	// Field names what was being read (item count, item length, term bytes...).
	Field string
	// Offset is the position within the result window, after re-basing to 0.
	Offset uint32
	// Need is the number of bytes the encoded value required.
	Need uint32
	// Avail is the number of bytes remaining in the window.
	Avail uint32
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("result decode out of bounds: %s at offset %d needs %d bytes, %d available",
		e.Field, e.Offset, e.Need, e.Avail)
}

// WindowError occurs when the (offset, length) pair reported by the guest
// does not fit inside the buffer handed to the decoder.
type WindowError struct {
	Offset uint32
	Length uint32
	Size   int
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("result window [%d, %d) exceeds buffer of %d bytes",
		e.Offset, e.Offset+e.Length, e.Size)
}
