package codec

import (
	"encoding/binary"
)

// TermLenFraming selects the width of the term-length field in a suggestion
// record. The two widths correspond to different guest module builds and are
// mutually incompatible; the framing in effect is part of the guest contract
// and is fixed at decoder construction.
type TermLenFraming uint8

const (
	// FramingU32 is a 4-byte little-endian term length; term bytes start at
	// record offset 12. This matches the current guest encoder.
	FramingU32 TermLenFraming = iota
	// FramingU8 is a single-byte term length; term bytes start at record
	// offset 9. Only older guest builds use this layout.
	FramingU8
)

// String returns the manifest spelling of the framing.
func (f TermLenFraming) String() string {
	if f == FramingU8 {
		return "u8"
	}
	return "u32"
}

// suggestion record header: count u32 LE, distance u32 LE.
const recordHeaderLen = 8

// Terminator is the byte stream the host transmits after the final chunk of
// a dictionary source so the guest flushes any partially buffered trailing
// entry. It applies independently to the primary and the bigram stream.
var Terminator = []byte{'\n'}

// Decoder decodes the guest's ranked-result wire format:
//
//	batch  := item_count:u32le item*
//	item   := item_len:u32le record
//	record := count:u32le distance:u32le term_len term_bytes
//
// All integers are little-endian. The width of term_len is fixed by the
// TermLenFraming the decoder was built with.
type Decoder struct {
	framing TermLenFraming
}

// NewDecoder creates a decoder for the given record framing.
func NewDecoder(framing TermLenFraming) *Decoder {
	return &Decoder{framing: framing}
}

// Framing returns the term-length framing the decoder targets.
func (d *Decoder) Framing() TermLenFraming {
	return d.framing
}

// Decode decodes the result window buf[offset : offset+length] into a Batch.
//
// The window is sliced exactly once; every Suggestion is a view into that
// single slice with offsets re-based to 0. The caller must hand in a buffer
// the guest can no longer mutate (a copy of guest memory, or a buffer that
// already crossed a channel); after that the backing bytes are immutable for
// the life of the batch.
//
// All length fields are validated here. Term bytes themselves are not
// materialized until Suggestion.Term is first called.
func (d *Decoder) Decode(buf []byte, offset, length uint32) (*Batch, error) {
	if uint64(offset)+uint64(length) > uint64(len(buf)) {
		return nil, &WindowError{Offset: offset, Length: length, Size: len(buf)}
	}
	window := buf[offset : offset+length]

	if length < 4 {
		return nil, &BoundsError{Field: "item count", Offset: 0, Need: 4, Avail: length}
	}
	itemCount := binary.LittleEndian.Uint32(window)

	batch := &Batch{}
	if itemCount > 0 {
		// Cap the allocation at what the window could possibly hold: the
		// smallest encodable item is item_len plus the record header.
		max := length / (4 + recordHeaderLen)
		n := itemCount
		if n > max {
			n = max
		}
		batch.items = make([]Suggestion, 0, n)
	}

	cursor := uint32(4)
	for i := uint32(0); i < itemCount; i++ {
		if length-cursor < 4 {
			return nil, &BoundsError{Field: "item length", Offset: cursor, Need: 4, Avail: length - cursor}
		}
		itemLen := binary.LittleEndian.Uint32(window[cursor:])
		cursor += 4

		if itemLen > length-cursor {
			return nil, &BoundsError{Field: "item bytes", Offset: cursor, Need: itemLen, Avail: length - cursor}
		}
		record := window[cursor : cursor+itemLen]

		s, err := d.newSuggestion(record, cursor)
		if err != nil {
			return nil, err
		}
		batch.items = append(batch.items, s)
		cursor += itemLen
	}

	return batch, nil
}

// newSuggestion validates a record's internal lengths and captures the view.
// base is the record's offset within the window, used only for error reporting.
func (d *Decoder) newSuggestion(record []byte, base uint32) (Suggestion, error) {
	rlen := uint32(len(record))

	lenField := uint32(4)
	if d.framing == FramingU8 {
		lenField = 1
	}
	if rlen < recordHeaderLen+lenField {
		return Suggestion{}, &BoundsError{Field: "record header", Offset: base, Need: recordHeaderLen + lenField, Avail: rlen}
	}

	var termLen uint32
	if d.framing == FramingU8 {
		termLen = uint32(record[recordHeaderLen])
	} else {
		termLen = binary.LittleEndian.Uint32(record[recordHeaderLen:])
	}

	termStart := recordHeaderLen + lenField
	if termLen > rlen-termStart {
		return Suggestion{}, &BoundsError{Field: "term bytes", Offset: base + termStart, Need: termLen, Avail: rlen - termStart}
	}

	return Suggestion{raw: record, termStart: termStart, termLen: termLen}, nil
}

// Suggestion is one ranked result, a zero-copy view over the decoded window.
// Count, Distance and Term are each computed at most once; the backing bytes
// never change after decode, so the memoization is not observable.
//
// A Suggestion is not safe for concurrent use, matching the bridge's
// single-caller model.
type Suggestion struct {
	raw       []byte
	termStart uint32
	termLen   uint32

	count    uint32
	distance uint32
	header   bool

	term     string
	termDone bool
}

// Count is the term's frequency in the dictionary.
func (s *Suggestion) Count() uint32 {
	s.parseHeader()
	return s.count
}

// Distance is the edit distance from the looked-up input.
func (s *Suggestion) Distance() uint32 {
	s.parseHeader()
	return s.distance
}

// Term is the suggested word. The string is materialized from the backing
// bytes on first access and reused afterwards.
func (s *Suggestion) Term() string {
	if !s.termDone {
		s.term = string(s.raw[s.termStart : s.termStart+s.termLen])
		s.termDone = true
	}
	return s.term
}

func (s *Suggestion) parseHeader() {
	if !s.header {
		s.count = binary.LittleEndian.Uint32(s.raw)
		s.distance = binary.LittleEndian.Uint32(s.raw[4:])
		s.header = true
	}
}

// Batch is an ordered sequence of suggestions. Order is the guest-assigned
// rank, most relevant first, preserved exactly as decoded.
type Batch struct {
	items []Suggestion
}

// Len returns the number of suggestions.
func (b *Batch) Len() int {
	return len(b.items)
}

// At returns the i-th suggestion. The pointer stays valid for the life of
// the batch; callers that retain it keep the whole backing window alive.
func (b *Batch) At(i int) *Suggestion {
	return &b.items[i]
}

// Terms materializes every suggestion's term, in rank order.
func (b *Batch) Terms() []string {
	out := make([]string, len(b.items))
	for i := range b.items {
		out[i] = b.items[i].Term()
	}
	return out
}
