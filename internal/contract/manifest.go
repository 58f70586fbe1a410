package contract

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/edgespell/spellbridge/internal/codec"
)

// Contract describes the entry-point surface of one guest module build.
//
// The bridge never probes a module for its layout: the record framing and
// export names are declared here, beside the .wasm binary, and a mismatch is
// a configuration error. Two framings exist in the wild (see codec); a
// manifest pins which one the targeted build uses.
type Contract struct {
	// Module is a name for logging and cache keys.
	Module string `yaml:"module"`
	// Version is the guest contract version this manifest describes.
	Version int `yaml:"version"`
	// TermLenFraming is "u32" (current builds) or "u8" (older builds).
	TermLenFraming string `yaml:"term_len_framing"`
	// MaxWriteBytes caps a single transfer chunk. 0 means the guest declares
	// no limit beyond its memory size.
	MaxWriteBytes uint32 `yaml:"max_write_bytes"`
	// Exports names the guest entry points.
	Exports Exports `yaml:"exports"`
	// ResultImport is the host function name the guest imports for results.
	ResultImport string `yaml:"result_import"`
}

// Exports holds the guest entry-point names.
type Exports struct {
	Initialize     string `yaml:"initialize"`
	Write          string `yaml:"write"`
	Lookup         string `yaml:"lookup"`
	LookupCompound string `yaml:"lookup_compound"`
}

// Default returns the contract of the guest build this bridge targets.
func Default() *Contract {
	return &Contract{
		Module:         "spellcheck",
		Version:        1,
		TermLenFraming: "u32",
		Exports: Exports{
			Initialize:     "symspell",
			Write:          "write_to_dictionary",
			Lookup:         "lookup",
			LookupCompound: "lookup_compound",
		},
		ResultImport: "result_handler",
	}
}

// Load reads and validates a contract manifest. An empty path returns the
// default contract.
func Load(path string) (*Contract, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &NotFoundError{Path: path, Err: err}
	}

	var c Contract
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	// Unset export names fall back to the defaults; a manifest only has to
	// spell out what differs from the targeted build.
	def := Default()
	if c.Module == "" {
		c.Module = def.Module
	}
	if c.TermLenFraming == "" {
		c.TermLenFraming = def.TermLenFraming
	}
	if c.Exports.Initialize == "" {
		c.Exports.Initialize = def.Exports.Initialize
	}
	if c.Exports.Write == "" {
		c.Exports.Write = def.Exports.Write
	}
	if c.Exports.Lookup == "" {
		c.Exports.Lookup = def.Exports.Lookup
	}
	if c.Exports.LookupCompound == "" {
		c.Exports.LookupCompound = def.Exports.LookupCompound
	}
	if c.ResultImport == "" {
		c.ResultImport = def.ResultImport
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Validate checks manifest fields.
func (c *Contract) Validate() error {
	if c.TermLenFraming != "u32" && c.TermLenFraming != "u8" {
		return &ValidationError{
			Field:   "term_len_framing",
			Message: "must be one of: u32, u8",
		}
	}
	return nil
}

// Framing returns the codec framing declared by the manifest.
func (c *Contract) Framing() codec.TermLenFraming {
	if c.TermLenFraming == "u8" {
		return codec.FramingU8
	}
	return codec.FramingU32
}
