package worker

import (
	"github.com/edgespell/spellbridge/pkg/suggest"
)

// ReadySentinel is the literal message a worker sends exactly once, after
// its module is instantiated and every dictionary source has been ingested
// end-to-end. It is never sent after an initialization error.
const ReadySentinel = "ready"

// Init is the single initialization message handed to a worker at start-up,
// alongside its channel endpoints.
type Init struct {
	// ModulePath locates the guest module binary.
	ModulePath string
	// DictionaryPath locates the primary dictionary source.
	DictionaryPath string
	// BigramPath optionally locates the secondary (compound) dictionary.
	BigramPath string
	// OptionsJSON optionally carries JSON-encoded spell.Options.
	OptionsJSON []byte
	// ConfigPath optionally locates a bridge configuration file.
	ConfigPath string
}

// Request is one lookup request. A Word containing whitespace is routed to
// compound lookup; otherwise to single-term lookup. Options nil means the
// worker's defaults.
//
// The channel protocol carries no correlation identifier: at most one
// request may be in flight. A second request sent before the first's
// response arrives produces an unspecified pairing of requests to responses.
type Request struct {
	Word    string
	Options *suggest.LookupOptions
}

// Response is a message from the worker to its controller.
type Response interface {
	isResponse()
}

// Ready carries the ReadySentinel.
type Ready struct{}

func (Ready) isResponse() {}

// String returns the wire sentinel.
func (Ready) String() string { return ReadySentinel }

// Error reports a failure. Before Ready it is terminal: the controller must
// discard the worker. After Ready it answers the in-flight request.
type Error struct {
	Message string
}

func (Error) isResponse() {}

// Result carries an independent copy of the raw guest result window for one
// request. The controller decodes it with its own codec.Decoder.
type Result struct {
	Payload []byte
}

func (Result) isResponse() {}
