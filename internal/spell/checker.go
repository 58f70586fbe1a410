package spell

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/edgespell/spellbridge/internal/codec"
	"github.com/edgespell/spellbridge/internal/contract"
	"github.com/edgespell/spellbridge/internal/memory"
	"github.com/edgespell/spellbridge/pkg/suggest"
)

// Guest is the entry-point surface of one instantiated spell-check module.
// internal/wasm.Instance satisfies it; tests substitute an in-process fake.
type Guest interface {
	Memory() memory.GuestMemory
	SetResultHandler(h func(offset, length uint32))
	Initialize(ctx context.Context, maxDictionaryEditDistance, countThreshold uint32) error
	WriteToDictionary(ctx context.Context, offset, length uint32, bigram bool) error
	Lookup(ctx context.Context, offset, length uint32, verbosity uint8, maxEditDistance uint32, includeUnknown, includeSelf bool) error
	LookupCompound(ctx context.Context, offset, length, maxEditDistance uint32) error
	Close(ctx context.Context) error
}

// Options configures a Checker at construction. There are no process-wide
// defaults; every facade carries its own configuration.
type Options struct {
	// MaxDictionaryEditDistance is the module's maximum edit distance,
	// fixed at initialization. Lookups must not request more.
	MaxDictionaryEditDistance uint32 `json:"maxDictionaryEditDistance"`
	// CountThreshold is the minimum frequency for a dictionary entry to
	// participate in suggestions.
	CountThreshold uint32 `json:"countThreshold"`
	// ChunkSize is the read size used by IngestReader.
	ChunkSize int `json:"chunkSize"`
}

func (o *Options) withDefaults() {
	if o.MaxDictionaryEditDistance == 0 {
		o.MaxDictionaryEditDistance = 2
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = 32 * 1024
	}
}

type state int

const (
	stateUninitialized state = iota
	stateReady
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateReady:
		return "ready"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Checker owns one guest module instance and presents typed spell-check
// operations over it.
//
// State machine: Uninitialized -> Ready -> (Ready | Failed). Failed is
// terminal; a failed checker cannot be reused and a fresh one must be
// created. A Checker has exactly one caller; the guest it wraps is
// single-threaded and calls must not be interleaved.
type Checker struct {
	guest  Guest
	bridge *memory.Bridge
	dec    *codec.Decoder
	enc    codec.TextEncoding
	opts   Options

	// MaxWriteBytes from the contract; 0 means no declared cap.
	maxWrite uint32

	state state

	// Per-call result capture. The guest invokes the result callback
	// synchronously inside Lookup/LookupCompound; these fields only live
	// between arming the call and its return.
	gotResult  bool
	batch      *codec.Batch
	raw        []byte
	captureRaw bool
	resultErr  error

	logger *zap.Logger
}

// New initializes a checker over an instantiated guest: it wires the memory
// bridge and result callback, then performs the guest's one-time
// configuration call. Any failure leaves the checker Failed and unusable.
func New(ctx context.Context, guest Guest, ct *contract.Contract, enc codec.TextEncoding, opts Options, logger *zap.Logger) (*Checker, error) {
	opts.withDefaults()
	if ct == nil {
		ct = contract.Default()
	}
	if enc == nil {
		enc = codec.UTF8()
	}

	c := &Checker{
		guest:    guest,
		bridge:   memory.NewBridge(guest.Memory(), logger),
		dec:      codec.NewDecoder(ct.Framing()),
		enc:      enc,
		opts:     opts,
		maxWrite: ct.MaxWriteBytes,
		state:    stateUninitialized,
		logger:   logger.With(zap.String("component", "spell-checker")),
	}

	guest.SetResultHandler(c.onResult)

	if err := guest.Initialize(ctx, opts.MaxDictionaryEditDistance, opts.CountThreshold); err != nil {
		c.state = stateFailed
		return nil, err
	}
	c.state = stateReady

	c.logger.Info("Spell checker ready",
		zap.Uint32("max_dictionary_edit_distance", opts.MaxDictionaryEditDistance),
		zap.Uint32("count_threshold", opts.CountThreshold),
	)

	return c, nil
}

// Options returns the configuration the checker was initialized with.
func (c *Checker) Options() Options {
	return c.opts
}

// onResult runs on the guest's call stack. The result window must be fully
// consumed here: the guest is free to reuse that memory on its next action.
func (c *Checker) onResult(offset, length uint32) {
	c.gotResult = true

	buf, err := c.bridge.ReadResult(offset, length)
	if err != nil {
		c.resultErr = err
		return
	}

	if c.captureRaw {
		c.raw = buf
		return
	}
	c.batch, c.resultErr = c.dec.Decode(buf, 0, uint32(len(buf)))
}

// write stages a chunk at offset 0 of guest memory.
func (c *Checker) write(chunk []byte) error {
	if c.maxWrite > 0 && uint32(len(chunk)) > c.maxWrite {
		return &memory.CapacityError{Requested: uint32(len(chunk)), Capacity: c.maxWrite}
	}
	return c.bridge.Write(chunk)
}

// IngestChunk writes one chunk of newline-delimited dictionary text into the
// guest. The bigram flag routes the chunk to the secondary (compound)
// dictionary stream. The guest splits lines itself; the host adds no framing.
func (c *Checker) IngestChunk(ctx context.Context, chunk []byte, bigram bool) error {
	if c.state != stateReady {
		return &StateError{Op: "IngestChunk", State: c.state.String()}
	}
	if len(chunk) == 0 {
		return nil
	}
	if err := c.write(chunk); err != nil {
		c.state = stateFailed
		return err
	}
	if err := c.guest.WriteToDictionary(ctx, 0, uint32(len(chunk)), bigram); err != nil {
		c.state = stateFailed
		return err
	}
	return nil
}

// FinishDictionary terminates one dictionary stream by transmitting a single
// newline, so the guest flushes any partially buffered trailing entry. Each
// stream (primary, bigram) is terminated independently.
func (c *Checker) FinishDictionary(ctx context.Context, bigram bool) error {
	return c.IngestChunk(ctx, codec.Terminator, bigram)
}

// IngestReader streams an entire dictionary source into the guest in
// ChunkSize pieces and terminates the stream. This is the only long-running
// phase; it checks ctx between chunks.
func (c *Checker) IngestReader(ctx context.Context, r io.Reader, bigram bool) error {
	buf := make([]byte, c.opts.ChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		if n > 0 {
			if ierr := c.IngestChunk(ctx, buf[:n], bigram); ierr != nil {
				return ierr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}
	return c.FinishDictionary(ctx, bigram)
}

// Lookup runs a single-term lookup and returns the decoded batch.
//
// opts.MaxEditDistance must not exceed the MaxDictionaryEditDistance the
// checker was initialized with; the guest does not defend against this.
func (c *Checker) Lookup(ctx context.Context, word string, opts suggest.LookupOptions) (*codec.Batch, error) {
	return c.lookup(ctx, word, opts, false)
}

// LookupRaw runs a single-term lookup and returns an independent copy of the
// raw result window, undecoded. Used by the worker channel, which ships raw
// buffers to a remote controller.
func (c *Checker) LookupRaw(ctx context.Context, word string, opts suggest.LookupOptions) ([]byte, error) {
	if _, err := c.lookup(ctx, word, opts, true); err != nil {
		return nil, err
	}
	return c.raw, nil
}

func (c *Checker) lookup(ctx context.Context, word string, opts suggest.LookupOptions, raw bool) (*codec.Batch, error) {
	if c.state != stateReady {
		return nil, &StateError{Op: "Lookup", State: c.state.String()}
	}

	encoded := c.enc.EncodeText(word)
	if err := c.write(encoded); err != nil {
		return nil, err
	}

	c.armCapture(raw)
	err := c.guest.Lookup(ctx, 0, uint32(len(encoded)),
		uint8(opts.Verbosity), opts.MaxEditDistance, opts.IncludeUnknown, opts.IncludeSelf)
	return c.finishCapture("Lookup", err)
}

// LookupCompound runs a multi-word lookup. Verbosity, IncludeUnknown and
// IncludeSelf do not apply to this mode.
func (c *Checker) LookupCompound(ctx context.Context, phrase string, maxEditDistance uint32) (*codec.Batch, error) {
	return c.lookupCompound(ctx, phrase, maxEditDistance, false)
}

// LookupCompoundRaw is the raw-window variant of LookupCompound.
func (c *Checker) LookupCompoundRaw(ctx context.Context, phrase string, maxEditDistance uint32) ([]byte, error) {
	if _, err := c.lookupCompound(ctx, phrase, maxEditDistance, true); err != nil {
		return nil, err
	}
	return c.raw, nil
}

func (c *Checker) lookupCompound(ctx context.Context, phrase string, maxEditDistance uint32, raw bool) (*codec.Batch, error) {
	if c.state != stateReady {
		return nil, &StateError{Op: "LookupCompound", State: c.state.String()}
	}

	encoded := c.enc.EncodeText(phrase)
	if err := c.write(encoded); err != nil {
		return nil, err
	}

	c.armCapture(raw)
	err := c.guest.LookupCompound(ctx, 0, uint32(len(encoded)), maxEditDistance)
	return c.finishCapture("LookupCompound", err)
}

func (c *Checker) armCapture(raw bool) {
	c.gotResult = false
	c.batch = nil
	c.raw = nil
	c.resultErr = nil
	c.captureRaw = raw
}

// finishCapture resolves one guest call's captured result. The contract is
// exactly one callback per lookup, with a possibly-empty batch.
func (c *Checker) finishCapture(op string, callErr error) (*codec.Batch, error) {
	if callErr != nil {
		c.state = stateFailed
		return nil, callErr
	}
	if c.resultErr != nil {
		return nil, c.resultErr
	}
	if !c.gotResult {
		return nil, &ProtocolError{Op: op, Message: "guest returned without invoking the result callback"}
	}
	return c.batch, nil
}

// Close releases the guest instance. The checker is unusable afterwards.
func (c *Checker) Close(ctx context.Context) error {
	c.state = stateFailed
	c.guest.SetResultHandler(nil)
	return c.guest.Close(ctx)
}
