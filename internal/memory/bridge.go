package memory

import (
	"go.uber.org/zap"
)

// window is the cached transfer view at offset 0 of guest memory. It records
// the memory generation it was created against and its length; it is valid
// only while the generation still matches and the length covers the chunk
// about to be written.
type window struct {
	generation uint64
	length     uint32
}

// Bridge makes host-to-guest writes safe despite guest-controlled memory
// relocation. All writes land at offset 0; the caller is responsible for
// immediately invoking the guest entry point that consumes [0, len(chunk)).
//
// The transfer window is recreated lazily, only when staleness is actually
// detected. Recreating it on every write would be wasted work; reusing a
// stale one is a use-after-relocation bug. Comparing generations catches
// exactly the dangerous case.
type Bridge struct {
	mem    GuestMemory
	win    *window
	logger *zap.Logger
}

// NewBridge creates a bridge over one guest memory.
func NewBridge(mem GuestMemory, logger *zap.Logger) *Bridge {
	return &Bridge{
		mem:    mem,
		logger: logger.With(zap.String("component", "memory-bridge")),
	}
}

// Write copies chunk into guest memory at offset 0, refreshing the transfer
// window first if it is missing, stale, or too small.
//
// A chunk the guest memory cannot hold is a fatal configuration error
// (*CapacityError); it is never retried.
func (b *Bridge) Write(chunk []byte) error {
	need := uint32(len(chunk))

	gen := b.mem.Generation()
	if b.win == nil || b.win.generation != gen || b.win.length < need {
		size := b.mem.Size()
		if need > size {
			return &CapacityError{Requested: need, Capacity: size}
		}
		if b.win != nil && b.win.generation != gen {
			b.logger.Debug("transfer window invalidated by memory growth",
				zap.Uint64("old_generation", b.win.generation),
				zap.Uint64("generation", gen),
			)
		}
		b.win = &window{generation: gen, length: size}
	}

	if !b.mem.Write(0, chunk) {
		return &WriteError{Offset: 0, Length: need}
	}
	return nil
}

// ReadResult copies the result window the guest reported via its callback.
// The copy is taken before control returns to the guest, because the guest
// is free to reuse that memory on its next action.
func (b *Bridge) ReadResult(offset, length uint32) ([]byte, error) {
	buf, ok := b.mem.ReadCopy(offset, length)
	if !ok {
		return nil, &ReadError{Offset: offset, Length: length, Size: b.mem.Size()}
	}
	return buf, nil
}
