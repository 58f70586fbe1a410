package suggest

// Shared lookup types for the spellbridge host.
// This package defines the request-side vocabulary used across internal packages.

// Verbosity controls how many ranked suggestions the guest module returns.
// The numeric values are the guest's wire encoding and must not be reordered.
type Verbosity uint8

const (
	// Top returns the single suggestion with the highest term frequency
	// at the smallest edit distance found.
	Top Verbosity = iota
	// Closest returns all suggestions at the smallest edit distance found,
	// ordered by term frequency descending.
	Closest
	// All returns every suggestion within MaxEditDistance, ordered by edit
	// distance ascending, then term frequency descending.
	All
)

// String returns a human-readable name for logging.
func (v Verbosity) String() string {
	switch v {
	case Top:
		return "top"
	case Closest:
		return "closest"
	case All:
		return "all"
	default:
		return "unknown"
	}
}

// LookupOptions configures a single-term lookup.
//
// MaxEditDistance must not exceed the dictionary edit distance the module
// was initialized with; the guest does not defend against this and the
// result is undefined. That bound is a caller responsibility.
type LookupOptions struct {
	Verbosity       Verbosity `json:"verbosity"`
	MaxEditDistance uint32    `json:"maxEditDistance"`
	IncludeUnknown  bool      `json:"includeUnknown"`
	IncludeSelf     bool      `json:"includeSelf"`
}

// UnmatchedDistance returns the sentinel distance the guest reports for the
// echo record emitted when IncludeUnknown is set and no dictionary entry
// fell within maxEditDistance. The sentinel is one past the requested
// maximum, so it can never collide with a real match.
func UnmatchedDistance(maxEditDistance uint32) uint32 {
	return maxEditDistance + 1
}
