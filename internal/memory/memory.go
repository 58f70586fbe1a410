package memory

import (
	"github.com/tetratelabs/wazero/api"
)

// GuestMemory is the linear memory owned by one guest module instance.
//
// The region is relocatable: any call into the guest may grow the memory and
// move it. Generation is the identity token for the current placement; it
// changes whenever the guest grows memory, and any cached view created
// against an older generation is invalid and must be recreated, never
// reused blindly.
type GuestMemory interface {
	// Size returns the current byte capacity.
	Size() uint32
	// Generation returns the identity token of the current placement.
	Generation() uint64
	// Read returns a view of [offset, offset+length). The view aliases guest
	// memory and is only valid until the next call into the guest; callers
	// that need the bytes afterwards must use ReadCopy.
	Read(offset, length uint32) ([]byte, bool)
	// ReadCopy returns an independent copy of [offset, offset+length).
	ReadCopy(offset, length uint32) ([]byte, bool)
	// Write copies data into memory at offset.
	Write(offset uint32, data []byte) bool
}

// WazeroMemory adapts a wazero api.Memory to GuestMemory.
//
// wazero relocates linear memory only when it grows, so the generation is
// derived from observed size changes: every time the size differs from the
// last observation the token is bumped. The adapter shares the facade's
// single-caller model and needs no locking.
type WazeroMemory struct {
	mem      api.Memory
	lastSize uint32
	gen      uint64
}

// NewWazeroMemory wraps the memory exported by a module instance.
func NewWazeroMemory(mem api.Memory) *WazeroMemory {
	return &WazeroMemory{mem: mem, lastSize: mem.Size(), gen: 1}
}

// Size returns the current byte capacity.
func (m *WazeroMemory) Size() uint32 {
	m.observe()
	return m.lastSize
}

// Generation returns the identity token of the current placement.
func (m *WazeroMemory) Generation() uint64 {
	m.observe()
	return m.gen
}

// Read returns a direct view into guest memory.
func (m *WazeroMemory) Read(offset, length uint32) ([]byte, bool) {
	return m.mem.Read(offset, length)
}

// ReadCopy returns an independent copy of the window.
func (m *WazeroMemory) ReadCopy(offset, length uint32) ([]byte, bool) {
	view, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, false
	}
	out := make([]byte, len(view))
	copy(out, view)
	return out, true
}

// Write copies data into guest memory.
func (m *WazeroMemory) Write(offset uint32, data []byte) bool {
	return m.mem.Write(offset, data)
}

func (m *WazeroMemory) observe() {
	if size := m.mem.Size(); size != m.lastSize {
		m.lastSize = size
		m.gen++
	}
}
